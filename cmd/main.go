package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/sabo-bracket/config"
	"github.com/Dosada05/sabo-bracket/db"
	"github.com/Dosada05/sabo-bracket/handlers"
	"github.com/Dosada05/sabo-bracket/models"
	"github.com/Dosada05/sabo-bracket/repositories"
	api "github.com/Dosada05/sabo-bracket/routes"
	"github.com/Dosada05/sabo-bracket/services"
	"github.com/Dosada05/sabo-bracket/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("storage_driver", cfg.StorageDriver),
		slog.Bool("allow_byes", cfg.AllowByes),
	)

	// Инициализация хранилища
	var (
		gateway repositories.Gateway
		ratings services.RatingLookup
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		memGateway := repositories.NewMemoryGateway()
		memRatings := repositories.NewMemoryRatingRepository()
		demoID := seedDemoTournament(memGateway, memRatings)
		logger.Info("in-memory storage initialized", slog.String("demo_tournament_id", demoID))
		gateway, ratings = memGateway, memRatings
	default:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
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
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = db.Migrate(migrateCtx, dbConn)
		cancel()
		if err != nil {
			logger.Error("failed to migrate database", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("database connection established")
		gateway = repositories.NewPostgresGateway(dbConn, logger)
		ratings = repositories.NewPostgresRatingRepository(dbConn)
	}

	// Инициализация загрузчика файлов (Cloudflare R2)
	r2Cfg := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	var uploader storage.FileUploader
	if r2Cfg.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), r2Cfg)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		uploader = storage.NewMemoryUploader(fmt.Sprintf("http://localhost:%d/archive", cfg.ServerPort))
		logger.Warn("R2 is not configured, bracket archives are kept in memory")
	}

	// Инициализация сервисов
	locker := services.NewTournamentLocker()
	bracketService := services.NewBracketService(gateway, ratings, locker, services.BracketServiceConfig{
		AllowByes: cfg.AllowByes,
	}, logger)
	matchService := services.NewMatchService(gateway, nil, locker, services.NewSnapshotArchiver(uploader), services.MatchServiceConfig{
		MaxRetries:   cfg.AdvanceMaxRetries,
		RetryBackoff: 25 * time.Millisecond,
	}, logger)
	logger.Info("Services initialized")

	// Запуск планировщика сверки сеток
	reconciler := services.NewReconciler(gateway, matchService, cfg.ReconcileInterval, logger)
	if err := reconciler.Start(); err != nil {
		logger.Error("failed to start reconciler", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := reconciler.Shutdown(); err != nil {
			logger.Error("failed to stop reconciler", slog.Any("error", err))
		}
	}()

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{
			JWTSecret:      []byte(cfg.JWTSecretKey),
			AllowedOrigins: cfg.CORSAllowedOrigins,
		},
		handlers.NewBracketHandler(bracketService),
		handlers.NewMatchHandler(matchService),
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 40 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			return
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

// seedDemoTournament registers sixteen rated players so the in-memory mode
// has something to build a bracket for.
func seedDemoTournament(gateway *repositories.MemoryGateway, ratings *repositories.MemoryRatingRepository) string {
	id := uuid.NewString()
	t := &models.Tournament{
		ID:        id,
		Name:      "Demo SABO-16",
		Status:    models.StatusRegistration,
		CreatedAt: time.Now().UTC(),
	}
	for i := 1; i <= 16; i++ {
		playerID := fmt.Sprintf("player-%02d", i)
		ratings.Set(playerID, 2100-i*15)
		t.Entrants = append(t.Entrants, &models.Entrant{
			ID:           playerID,
			TournamentID: id,
			DisplayName:  fmt.Sprintf("Player %d", i),
		})
	}
	gateway.AddTournament(t)
	return id
}
