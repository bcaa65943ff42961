package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/lingobridge-backend/internal/db"
	"github.com/yungbote/lingobridge-backend/internal/handlers"
	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/middleware"
	"github.com/yungbote/lingobridge-backend/internal/repos"
	"github.com/yungbote/lingobridge-backend/internal/server"
	"github.com/yungbote/lingobridge-backend/internal/services"
	"github.com/yungbote/lingobridge-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	profileRepo := repos.NewProfileRepo(thePG, log)
	questionRepo := repos.NewQuestionRepo(thePG, log)
	audioAssetRepo := repos.NewAudioAssetRepo(thePG, log)
	placementTestRepo := repos.NewPlacementTestRepo(thePG, log)
	placementResultRepo := repos.NewPlacementResultRepo(thePG, log)
	contentItemRepo := repos.NewContentItemRepo(thePG, log)
	contentAssignmentRepo := repos.NewContentAssignmentRepo(thePG, log)
	lessonPlanRepo := repos.NewLessonPlanRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	aiClient, err := services.NewAIClient(log)
	if err != nil {
		log.Error("Could not init AIClient", "error", err)
		os.Exit(1)
	}
	transcriber, err := services.NewSpeechTranscriber(log)
	if err != nil {
		log.Error("Could not init SpeechTranscriber", "error", err)
		os.Exit(1)
	}
	defer transcriber.Close()
	learnerLock, err := services.NewRedisLearnerLock(log)
	if err != nil {
		log.Warn("Redis unavailable, falling back to noop learner lock", "error", err)
		learnerLock = services.NewNoopLearnerLock()
	}

	identityService := services.NewIdentityService(thePG, log, userRepo, profileRepo)
	analysisService := services.NewAnalysisService(log, aiClient, transcriber)
	questionBank := services.NewQuestionBankService(thePG, log, questionRepo)
	audioAssetService := services.NewAudioAssetService(log, audioAssetRepo, bucketService)
	finalizer := services.NewResultFinalizer(log, placementResultRepo)
	placementService := services.NewPlacementService(thePG, log, identityService, questionBank, analysisService, placementTestRepo, finalizer)
	snapshotService := services.NewSnapshotService(log, identityService, placementResultRepo, profileRepo)
	contentDelivery := services.NewContentDeliveryService(
		thePG,
		log,
		identityService,
		snapshotService,
		analysisService,
		audioAssetService,
		learnerLock,
		contentItemRepo,
		contentAssignmentRepo,
		lessonPlanRepo,
		placementResultRepo,
	)

	// Seed the static banks so a fresh database can serve a test
	seedCtx := context.Background()
	if err := questionBank.SeedDefaultBank(seedCtx); err != nil {
		log.Warn("Question bank seeding failed", "error", err)
	}
	if err := audioAssetService.SeedDefaultCatalog(seedCtx); err != nil {
		log.Warn("Audio catalog seeding failed", "error", err)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	placementHandler := handlers.NewPlacementHandler(log, placementService)
	contentHandler := handlers.NewContentHandler(log, contentDelivery)
	learningHandler := handlers.NewLearningHandler(log, snapshotService, contentDelivery, audioAssetService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:   authMiddleware,
		PlacementHandler: placementHandler,
		ContentHandler:   contentHandler,
		LearningHandler:  learningHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
