package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/config"
	"github.com/stemsi/classroom-backend/internal/database"
	"github.com/stemsi/classroom-backend/internal/handler"
	"github.com/stemsi/classroom-backend/internal/logger"
	"github.com/stemsi/classroom-backend/internal/mailer"
	"github.com/stemsi/classroom-backend/internal/repository"
	"github.com/stemsi/classroom-backend/internal/router"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stemsi/classroom-backend/internal/storage"
	"github.com/stemsi/classroom-backend/internal/validator"
	ws "github.com/stemsi/classroom-backend/internal/websocket"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Classroom Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to MongoDB ────────────────────────────────────────────
	client, err := database.NewMongoClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
	}()
	db := client.Database(cfg.MongoDatabase)

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Blob Storage & Mail ───────────────────────────────────────────
	blobs, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize blob storage")
	}
	if closer, ok := blobs.(io.Closer); ok {
		defer closer.Close()
	}

	sender, err := mailer.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize mailer")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	emailRepo := repository.NewEmailHistoryRepository(db)

	// ─── Initialize Services ──────────────────────────────────────────
	limiter := service.NewRedisLoginLimiter(rdb, cfg.LoginMaxAttempts, cfg.LoginLockDuration)
	broker := ws.NewRedisBroker(rdb)

	authService := service.NewAuthService(cfg, userRepo, tokenRepo, limiter, log)
	userService := service.NewUserService(userRepo, tokenRepo, authService, blobs, cfg.MaxUploadBytes, log)
	courseService := service.NewCourseService(courseRepo, userRepo, log)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, userRepo, log)
	materialService := service.NewMaterialService(materialRepo, courseRepo, userRepo, blobs, cfg.MaxUploadBytes, log)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, broker, log)
	emailService := service.NewEmailService(emailRepo, sender, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	pingers := map[string]handler.Pinger{
		"mongodb": func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}

	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService, log),
		User:         handler.NewUserHandler(userService, cfg.MaxUploadBytes, log),
		Course:       handler.NewCourseHandler(courseService, assignmentService, materialService, log),
		Assignment:   handler.NewAssignmentHandler(assignmentService, log),
		Material:     handler.NewMaterialHandler(materialService, cfg.MaxUploadBytes, log),
		Notification: handler.NewNotificationHandler(notificationService, emailService, log),
		WS:           handler.NewWSHandler(broker, log, cfg.AllowedOrigins),
		System:       handler.NewSystemHandler(pingers, log),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, cfg, authService, userRepo, blobs, handlers, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// Stop accepting new HTTP requests (5s timeout). WebSocket streams are
	// hijacked and end when Redis closes their subscriptions below.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	cancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
