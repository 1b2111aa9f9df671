package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"algo_answer_hub/internal/api"
	"algo_answer_hub/internal/app/service"
	"algo_answer_hub/internal/app/store"
	"algo_answer_hub/internal/common/security"
	"algo_answer_hub/internal/domain/repository"
	"algo_answer_hub/internal/platform/cache"
	"algo_answer_hub/internal/platform/config"
	"algo_answer_hub/internal/platform/database"
	"algo_answer_hub/internal/platform/logging"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	config.Load()

	// 2. Initialize Logging & JWT
	logging.Init(config.AppConfig.LogLevel)
	defer logging.Sync()
	logger := logging.Logger
	security.InitJWT()

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	logger.Info("database connected")

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	logger.Info("redis connected")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	questionRepo := repository.NewPgQuestionRepository(database.DB)
	solutionRepo := repository.NewPgSolutionRepository(database.DB)
	commentRepo := repository.NewPgCommentRepository(database.DB)
	likeRepo := repository.NewPgLikeRepository(database.DB)

	// 6. Initialize Services & Stores
	sessions := cache.NewSessionStore(cache.RDB)
	events := cache.NewEventBus(cache.RDB, config.AppConfig.SessionChannel)
	authService := service.NewAuthService(
		userRepo, sessions, events, logger,
		config.AppConfig.JWTExp, config.AppConfig.VerificationTokenTTL,
		config.AppConfig.AvatarURLTemplate,
	)
	notifier := store.NewZapNotifier(logger)
	stores := store.NewManager(
		questionRepo, solutionRepo, commentRepo, likeRepo, userRepo,
		authService, notifier, logger,
		config.AppConfig.StoreReloadDelay, config.AppConfig.StoreIdleTTL,
	)

	// 7. Session event subscription (as a goroutine)
	managerCtx, managerCancel := context.WithCancel(context.Background())
	defer managerCancel()
	go stores.Run(managerCtx, events.Subscribe(managerCtx))

	// Warm the shared guest store so the first anonymous read is served from
	// a populated view.
	if _, err := stores.StoreFor(managerCtx, ""); err != nil {
		logger.Warn("failed to warm guest store", zap.Error(err))
	}

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(authService, stores, sessions)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("port", config.AppConfig.APIPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()

	<-stop // Wait for interrupt signal

	logger.Info("shutting down server")
	managerCancel() // Stop the session event subscriber

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	logger.Info("server stopped gracefully")
}
