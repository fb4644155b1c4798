package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"choreboard-backend-go/internal/api"
	"choreboard-backend-go/internal/blob"
	"choreboard-backend-go/internal/config"
	"choreboard-backend-go/internal/core"
	"choreboard-backend-go/internal/db"
	"choreboard-backend-go/internal/middleware"
	"choreboard-backend-go/internal/notify"
	"choreboard-backend-go/internal/reward"
)

func main() {
	// A missing .env is fine in deployed environments; the platform injects
	// the variables directly there.
	_ = godotenv.Load()

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var zapLogger *zap.Logger
	if strings.ToLower(appConfig.LogMode) == "production" {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	clients, err := db.InitFirebase(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	defer clients.Firestore.Close()

	storageClient, err := storage.NewClient(initCtx)
	if err != nil {
		zapLogger.Fatal("failed to initialize Cloud Storage client", zap.Error(err))
	}
	defer storageClient.Close()

	store := db.NewFirestoreStore(clients.Firestore, zapLogger)
	images := blob.NewGCSStore(storageClient, appConfig.StorageBucket, zapLogger)

	var ledger reward.Ledger
	if appConfig.RewardFunctionURL != "" {
		ledger = reward.NewHTTPLedger(appConfig.RewardFunctionURL, zapLogger)
	} else {
		zapLogger.Warn("REWARD_FUNCTION_URL not set, reward credits disabled")
		ledger = reward.Disabled{Logger: zapLogger}
	}

	auth := core.NewAuthService(
		core.NewFirebaseVerifier(clients.Auth),
		core.SessionDeps{
			Store:     store,
			Blob:      images,
			Ledger:    ledger,
			Notifier:  notify.NewExpoNotifier(zapLogger),
			Logger:    zapLogger,
			InviteTTL: time.Duration(appConfig.InviteCodeTTLHours) * time.Hour,
		},
		zapLogger,
	)

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
		zapLogger.Warn("CLIENT_URL not set, CORS middleware skipped")
	}

	api.SetupRoutes(router, auth, zapLogger)

	srv := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: router,
	}

	go func() {
		zapLogger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("forced shutdown", zap.Error(err))
	}
	auth.Shutdown()
	zapLogger.Info("server stopped")
}
