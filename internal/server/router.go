package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/lingobridge-backend/internal/handlers"
	"github.com/yungbote/lingobridge-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware   *middleware.AuthMiddleware
	PlacementHandler *handlers.PlacementHandler
	ContentHandler   *handlers.ContentHandler
	LearningHandler  *handlers.LearningHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Placement
	api.POST("/placement/initialize", cfg.PlacementHandler.Initialize)
	api.GET("/placement/:testId/modules/:moduleType/questions", cfg.PlacementHandler.GetModuleQuestions)
	api.POST("/placement/:testId/modules/:moduleType/submit", cfg.PlacementHandler.SubmitModule)
	api.POST("/placement/:testId/speaking/audio", cfg.PlacementHandler.SubmitSpeakingAudio)
	api.POST("/placement/:testId/finalize", cfg.PlacementHandler.Finalize)
	// Learning
	api.GET("/learning/snapshot", cfg.LearningHandler.Snapshot)
	api.GET("/learning/plan", cfg.LearningHandler.Plan)
	api.GET("/learning/clips", cfg.LearningHandler.Clips)
	api.POST("/learning/plan/regenerate", cfg.LearningHandler.RegeneratePlan)
	// Content
	api.POST("/content/prepare", cfg.ContentHandler.Prepare)
	api.GET("/content/:contentId", cfg.ContentHandler.Get)
	api.POST("/content/:contentId/complete", cfg.ContentHandler.Complete)

	return router
}
