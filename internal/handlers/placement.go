package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/middleware"
	"github.com/yungbote/lingobridge-backend/internal/services"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

// maxAudioBytes caps speaking uploads at 10 MiB.
const maxAudioBytes = 10 << 20

type PlacementHandler struct {
	log       *logger.Logger
	placement services.PlacementService
}

func NewPlacementHandler(log *logger.Logger, placement services.PlacementService) *PlacementHandler {
	return &PlacementHandler{
		log:       log.With("handler", "PlacementHandler"),
		placement: placement,
	}
}

func (h *PlacementHandler) Initialize(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing authenticated user"))
		return
	}
	view, err := h.placement.InitializeTest(c.Request.Context(), userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, view)
}

func (h *PlacementHandler) GetModuleQuestions(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing authenticated user"))
		return
	}
	testID, err := uuid.Parse(c.Param("testId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_test_id", err)
		return
	}
	moduleType := types.ModuleType(c.Param("moduleType"))
	if !moduleType.Valid() {
		RespondError(c, http.StatusBadRequest, "invalid_module_type", fmt.Errorf("unknown module type %q", c.Param("moduleType")))
		return
	}

	questions, err := h.placement.GetModuleQuestions(c.Request.Context(), testID, userID, moduleType)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	// correct answers never leave the server
	out := make([]gin.H, 0, len(questions))
	for _, question := range questions {
		out = append(out, gin.H{
			"id":         question.ID,
			"skill":      question.Skill,
			"level":      question.Level,
			"difficulty": question.Difficulty,
			"prompt":     question.Prompt,
			"options":    question.OptionList(),
		})
	}
	RespondOK(c, gin.H{"module_type": moduleType, "questions": out})
}

type submitModuleRequest struct {
	Answers map[string]string `json:"answers"`
}

func (h *PlacementHandler) SubmitModule(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing authenticated user"))
		return
	}
	testID, err := uuid.Parse(c.Param("testId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_test_id", err)
		return
	}
	moduleType := types.ModuleType(c.Param("moduleType"))

	var req submitModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	feedback, err := h.placement.SubmitModule(c.Request.Context(), testID, userID, moduleType, req.Answers)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, feedback)
}

func (h *PlacementHandler) SubmitSpeakingAudio(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing authenticated user"))
		return
	}
	testID, err := uuid.Parse(c.Param("testId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_test_id", err)
		return
	}
	questionID, err := uuid.Parse(c.Query("questionId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_question_id", err)
		return
	}

	audio, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAudioBytes+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_audio", err)
		return
	}
	if len(audio) > maxAudioBytes {
		RespondError(c, http.StatusRequestEntityTooLarge, "audio_too_large", fmt.Errorf("audio exceeds %d bytes", maxAudioBytes))
		return
	}
	contentType := c.GetHeader("Content-Type")

	feedback, err := h.placement.SubmitSpeakingAudio(c.Request.Context(), testID, userID, questionID, audio, contentType)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, feedback)
}

func (h *PlacementHandler) Finalize(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing authenticated user"))
		return
	}
	testID, err := uuid.Parse(c.Param("testId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_test_id", err)
		return
	}

	result, err := h.placement.Finalize(c.Request.Context(), testID, userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, result)
}
