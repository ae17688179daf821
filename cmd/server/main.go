package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resumepilot-backend/internal/ai"
	"resumepilot-backend/internal/api"
	"resumepilot-backend/internal/config"
	"resumepilot-backend/internal/core"
	"resumepilot-backend/internal/db"
	"resumepilot-backend/internal/extract"
	"resumepilot-backend/internal/middleware"
	"resumepilot-backend/internal/storage"
)

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded")

	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()

	clients, err := db.NewClients(initCtx, appConfig)
	if err != nil {
		zapLogger.Fatal("Failed to initialize Firebase and Cloud Storage clients", zap.Error(err))
	}
	defer clients.Close()
	zapLogger.Info("Firestore, Auth and Storage clients initialized")

	analyzer, err := ai.NewGeminiAnalyzer(initCtx, appConfig.GeminiAPIKey, appConfig.GeminiModel, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize analysis client", zap.Error(err))
	}
	defer analyzer.Close()

	// Repositories
	userRepo := db.NewFirestoreUserRepository(clients.Firestore)
	resumeRepo := db.NewFirestoreResumeRepository(clients.Firestore)
	reviewOrderRepo := db.NewFirestoreReviewOrderRepository(clients.Firestore)
	billingRepo := db.NewFirestoreBillingRepository(clients.Firestore)

	// Services
	fileStore := storage.NewGCSFileStore(clients.Storage, appConfig.StorageBucket)
	extractor := extract.New()
	creditService := core.NewCreditService(userRepo, zapLogger)
	userService := core.NewUserService(userRepo, zapLogger)
	analysisService := core.NewAnalysisService(resumeRepo, userRepo, creditService, analyzer, extractor, fileStore, zapLogger)
	billingService := core.NewBillingService(userRepo, resumeRepo, billingRepo, appConfig, zapLogger)
	reviewService := core.NewReviewService(reviewOrderRepo, resumeRepo, zapLogger)
	zapLogger.Info("Core services initialized")

	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
	} else {
		zapLogger.Warn("CORS middleware skipped: CLIENT_URL is not configured")
	}

	authMW := middleware.NewAuthMiddleware(clients.Auth, zapLogger)
	api.SetupRoutes(router, appConfig, zapLogger, authMW, userService, analysisService, billingService, reviewService)

	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting gracefully")
}
