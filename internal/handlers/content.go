package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/middleware"
	"github.com/yungbote/lingobridge-backend/internal/services"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

type ContentHandler struct {
	log      *logger.Logger
	delivery services.ContentDeliveryService
}

func NewContentHandler(log *logger.Logger, delivery services.ContentDeliveryService) *ContentHandler {
	return &ContentHandler{
		log:      log.With("handler", "ContentHandler"),
		delivery: delivery,
	}
}

// prepareContentRequest narrows generation; the body is optional and
// every field may be omitted.
type prepareContentRequest struct {
	Level  string   `json:"level"`
	Skill  string   `json:"skill"`
	Topics []string `json:"topics"`
}

func (h *ContentHandler) Prepare(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing authenticated user"))
		return
	}

	var opts services.PrepareOptions
	if c.Request.ContentLength > 0 {
		var req prepareContentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
		if req.Level != "" {
			level, parsed := types.ParseCEFRLevel(req.Level)
			if !parsed {
				RespondError(c, http.StatusBadRequest, "invalid_level", fmt.Errorf("unknown level %q", req.Level))
				return
			}
			opts.Level = level
		}
		if req.Skill != "" {
			skill := types.ModuleType(strings.ToLower(req.Skill))
			if !skill.Valid() {
				RespondError(c, http.StatusBadRequest, "invalid_skill", fmt.Errorf("unknown skill %q", req.Skill))
				return
			}
			opts.Skill = skill
		}
		opts.Topics = req.Topics
	}

	view, err := h.delivery.PrepareContent(c.Request.Context(), userID, opts)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, view)
}

func (h *ContentHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing authenticated user"))
		return
	}
	contentID, err := uuid.Parse(c.Param("contentId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}
	view, err := h.delivery.GetContent(c.Request.Context(), userID, contentID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, view)
}

// completeContentRequest keys answers by block index; JSON object keys
// are strings so the index arrives as one.
type completeContentRequest struct {
	Answers map[string]string `json:"answers"`
}

func (h *ContentHandler) Complete(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing authenticated user"))
		return
	}
	contentID, err := uuid.Parse(c.Param("contentId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}

	// the body is optional; a bodiless complete grades no answers
	var req completeContentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}
	answers := make(map[int]string, len(req.Answers))
	for key, value := range req.Answers {
		index, convErr := strconv.Atoi(key)
		if convErr != nil {
			RespondError(c, http.StatusBadRequest, "invalid_answer_key", fmt.Errorf("answer key %q is not a block index", key))
			return
		}
		answers[index] = value
	}

	view, err := h.delivery.CompleteContent(c.Request.Context(), userID, contentID, answers)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, view)
}
