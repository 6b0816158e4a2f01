package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mobiverify/iap-verify/internal/application/command"
	"github.com/mobiverify/iap-verify/internal/application/middleware"
	"github.com/mobiverify/iap-verify/internal/domain/service"
	"github.com/mobiverify/iap-verify/internal/infrastructure/config"
	"github.com/mobiverify/iap-verify/internal/infrastructure/external/appstore"
	"github.com/mobiverify/iap-verify/internal/infrastructure/external/playstore"
	"github.com/mobiverify/iap-verify/internal/infrastructure/logging"
	"github.com/mobiverify/iap-verify/internal/infrastructure/persistence/pool"
	"github.com/mobiverify/iap-verify/internal/infrastructure/persistence/repository"
	app_handler "github.com/mobiverify/iap-verify/internal/interfaces/http/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.Init(cfg.Sentry.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Sync()

	logging.Logger.Info("Starting IAP verification server",
		zap.Int("port", cfg.Server.Port),
		zap.String("environment", cfg.Sentry.Environment),
		zap.Int("grace_days", cfg.IAP.GraceDays),
	)

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Release:     cfg.Sentry.Release,
		}); err != nil {
			logging.Logger.Fatal("Failed to initialize Sentry", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	dbPool, err := pool.NewPool(ctx, cfg.Database)
	if err != nil {
		logging.Logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close(dbPool)

	if err := pool.Ping(ctx, dbPool); err != nil {
		logging.Logger.Fatal("Failed to ping database", zap.Error(err))
	}

	verificationRepo := repository.NewVerificationRepository(dbPool, logging.WithComponent("verification_repository"))
	reconciler := service.NewReconciler(cfg.IAP.GraceDays, nil)

	// Apple legacy verification is always wired; a bundle without a shared
	// secret fails per-call, not at startup.
	legacyClient := appstore.NewLegacyClient(&cfg.AppleSecret, logging.WithComponent("appstore_legacy"))
	appleReceiptCmd := command.NewVerifyAppleReceiptCommand(
		legacyClient, reconciler, verificationRepo, logging.WithComponent("verify_apple_receipt"))

	// The StoreKit path has no fallback for a broken signing key: wire it
	// only when configured, and die loudly on a key that will not parse.
	var appleTransactionCmd app_handler.VerifyCommand
	if cfg.AppleStore.Configured() {
		tokens, err := appstore.NewTokenSource(cfg.AppleStore, nil)
		if err != nil {
			logging.Logger.Fatal("Failed to load App Store signing key", zap.Error(err))
		}
		storeKitClient := appstore.NewStoreKitClient(tokens, logging.WithComponent("appstore_storekit"))
		appleTransactionCmd = command.NewVerifyAppleTransactionCommand(
			storeKitClient, reconciler, verificationRepo, logging.WithComponent("verify_apple_transaction"))
	} else {
		logging.Logger.Warn("App Store Connect key not configured, /v2/Apple disabled")
	}

	var googleCmd app_handler.VerifyCommand
	if cfg.Google.KeyJSON != "" {
		playClient, err := playstore.NewClient(ctx, []byte(cfg.Google.KeyJSON), logging.WithComponent("playstore"))
		if err != nil {
			logging.Logger.Fatal("Failed to create Play client", zap.Error(err))
		}
		googleCmd = command.NewVerifyGoogleCommand(
			playClient, reconciler, verificationRepo, logging.WithComponent("verify_google"))
	} else {
		logging.Logger.Warn("Google service account not configured, /v1/Google disabled")
	}

	if cfg.Sentry.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		logging.RequestMiddleware(logging.Logger),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	verifyRoutes := router.Group("")
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logging.Logger.Fatal("Failed to parse Redis URL", zap.Error(err))
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		rateLimiter := middleware.NewRateLimiter(redisClient, true, logging.WithComponent("rate_limiter"))
		verifyRoutes.Use(rateLimiter.Middleware(middleware.DefaultConfig))
	}

	verifyHandler := app_handler.NewVerifyHandler(appleReceiptCmd, appleTransactionCmd, googleCmd)
	verifyHandler.Register(verifyRoutes)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logging.Logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logging.Logger.Info("Server exited")
}
