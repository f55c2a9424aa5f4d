package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"supportdesk-backend/internal/chat"
	"supportdesk-backend/internal/config"
	"supportdesk-backend/internal/database"
	"supportdesk-backend/internal/handlers"
	"supportdesk-backend/internal/logger"
	"supportdesk-backend/internal/middleware"
	"supportdesk-backend/internal/repository"
	"supportdesk-backend/internal/router"
	"supportdesk-backend/internal/services"
	"supportdesk-backend/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.IsDevelopment(), os.Stdout)
	log.Info().Str("env", cfg.Env).Msg("🚀 Starting Support Desk Backend")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ PostgreSQL connection failed")
	}
	defer pool.Close()
	log.Info().Msg("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Redis connection failed")
	}
	defer redisClients.Close()
	log.Info().Msg("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("✗ Database migration failed")
	}
	log.Info().Msg("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	tokenRepo := repository.NewTokenRepo(redisClients.Store)
	transcriptRepo := repository.NewTranscriptRepo(redisClients.Store)

	// ──── Step 5: Start Chat Transcript ────
	fileSink, err := chat.NewFileSink(cfg.ChatLogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Chat transcript file could not be opened")
	}
	defer fileSink.Close()

	turnLogger := chat.NewTurnLogger(cfg.ChatLogBuffer, fileSink, transcriptRepo)
	log.Info().Str("path", cfg.ChatLogPath).Msg("✓ Chat transcript started")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)

	var google services.GoogleVerifier
	if cfg.GoogleClientID != "" {
		google = services.NewIDTokenVerifier(cfg.GoogleClientID)
	} else {
		log.Warn().Msg("GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	authService := services.NewAuthService(userRepo, tokenRepo, jwtAuth, google)
	chatService := services.NewChatService(
		chat.NewMemoryStore(chat.MaxTurns),
		chat.NewEngine(),
		turnLogger,
		cfg.ChatSessionKey,
	)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(chatService, transcriptRepo)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, repository.TranscriptChannel, jwtAuth)
	log.Info().Msg("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	limiters := router.NewLimiters()
	r := router.New(
		jwtAuth,
		limiters,
		authHandler,
		chatHandler,
		wsHub,
		cfg.CORSOrigins,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown failed")
		}

		wsHub.Close()
		limiters.Stop()
		turnLogger.Close()
	}()

	log.Info().Msgf("✓ Support Desk Backend ready on http://localhost:%s", cfg.Port)
	log.Info().Msgf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Info().Msgf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
	<-shutdownDone
}
