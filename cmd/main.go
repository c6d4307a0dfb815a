package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/league-bracket/brackets"
	"github.com/Dosada05/league-bracket/config"
	"github.com/Dosada05/league-bracket/db"
	"github.com/Dosada05/league-bracket/handlers"
	"github.com/Dosada05/league-bracket/middleware"
	"github.com/Dosada05/league-bracket/repositories"
	api "github.com/Dosada05/league-bracket/routes"
	"github.com/Dosada05/league-bracket/services"
	"github.com/Dosada05/league-bracket/storage"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Уровень логгера задается после загрузки конфигурации.
	logLevel := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logLevel.Set(cfg.LogLevel)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", cfg.LogLevel.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, cfg.DBConnectTimeout)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, dbConn); err != nil {
			logger.Error("failed to migrate database", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("database schema is up to date")
	}

	// Выгрузка снимков сетки (Cloudflare R2) - только если настроена
	var uploader storage.FileUploader
	if cfg.R2.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2.BucketName))
	} else {
		logger.Info("R2 is not configured, bracket snapshots are disabled")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	bracketStore := repositories.NewPostgresBracketStore(dbConn, logger)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	championshipRepo := repositories.NewPostgresChampionshipRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	retry := services.RetryOptions{
		MaxAttempts: cfg.AllocationMaxRetries,
		Min:         cfg.AllocationRetryMin,
		Max:         cfg.AllocationRetryMax,
	}
	allocator := services.NewSlotAllocator(logger)
	integrityService := services.NewIntegrityService(matchRepo, logger)
	matchService := services.NewMatchService(
		bracketStore,
		matchRepo,
		teamRepo,
		championshipRepo,
		allocator,
		integrityService,
		wsHub,
		retry,
		logger,
	)
	resultService := services.NewResultService(bracketStore, matchRepo, wsHub, retry, logger)
	bracketService := services.NewBracketService(
		matchRepo,
		championshipRepo,
		matchService,
		integrityService,
		uploader,
		wsHub,
		logger,
	)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	matchHandler := handlers.NewMatchHandler(matchService, resultService)
	bracketHandler := handlers.NewBracketHandler(bracketService, integrityService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins)
	healthHandler := handlers.NewHealthHandler(dbConn)
	writeLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Info("HTTP handlers initialized", slog.Float64("write_rate_limit_rps", cfg.RateLimitRPS))

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.CORSAllowedOrigins,
		matchHandler,
		bracketHandler,
		webSocketHandler,
		healthHandler,
		writeLimiter,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			// If shutdown fails, force close.
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
