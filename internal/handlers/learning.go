package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/middleware"
	"github.com/yungbote/lingobridge-backend/internal/services"
)

type LearningHandler struct {
	log      *logger.Logger
	snapshot services.SnapshotService
	delivery services.ContentDeliveryService
	audio    services.AudioAssetService
}

func NewLearningHandler(log *logger.Logger, snapshot services.SnapshotService, delivery services.ContentDeliveryService, audio services.AudioAssetService) *LearningHandler {
	return &LearningHandler{
		log:      log.With("handler", "LearningHandler"),
		snapshot: snapshot,
		delivery: delivery,
		audio:    audio,
	}
}

func (h *LearningHandler) Snapshot(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing authenticated user"))
		return
	}
	snap, err := h.snapshot.SnapshotForUser(c.Request.Context(), userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, snap)
}

// Clips serves one listening clip per placement level for free practice
// outside the adaptive loop.
func (h *LearningHandler) Clips(c *gin.Context) {
	if _, ok := middleware.UserIDFrom(c); !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing authenticated user"))
		return
	}
	clips, err := h.audio.RandomOneClipPerLevel(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, clips)
}

func (h *LearningHandler) Plan(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing authenticated user"))
		return
	}
	plan, err := h.delivery.EnsurePlan(c.Request.Context(), userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, plan)
}

func (h *LearningHandler) RegeneratePlan(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing authenticated user"))
		return
	}
	plan, err := h.delivery.RegeneratePlan(c.Request.Context(), userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, plan)
}
