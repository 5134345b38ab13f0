package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulsechat/relay/internal/api"
	"github.com/pulsechat/relay/internal/auth"
	"github.com/pulsechat/relay/internal/config"
	"github.com/pulsechat/relay/internal/handlers"
	"github.com/pulsechat/relay/internal/presence"
	"github.com/pulsechat/relay/internal/relay"
	"github.com/pulsechat/relay/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Redis backs the rate limiter and can carry the message store when
	// STORE_DRIVER=redis.
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Select the message store: Postgres in production, SQLite as the
	// development fallback, memory when nothing is configured.
	var messageStore store.MessageStore
	switch {
	case cfg.StoreDriver == "redis" && redisStore != nil:
		messageStore = redisStore
		logger.Info().Msg("using Redis message store")
	case cfg.DatabaseURL != "":
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		messageStore = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	case cfg.SQLitePath != "" || cfg.IsDevelopment():
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		messageStore = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite store")
	default:
		messageStore = store.NewMemoryStore()
		logger.Warn().Msg("no store configured, messages are not durable")
	}
	defer messageStore.Close()

	// Auth provider: static user directory
	var provider auth.Provider
	users, err := auth.LoadUsers(cfg.UsersFile)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn().Err(err).Str("path", cfg.UsersFile).Msg("no user directory, logins will fail")
			provider = auth.NewStaticProvider(nil)
		} else {
			logger.Fatal().Err(err).Str("path", cfg.UsersFile).Msg("user directory load failed")
		}
	} else {
		provider = auth.NewStaticProvider(users)
		logger.Info().Int("users", len(users)).Msg("user directory loaded")
	}

	// Assemble the routing core
	registry := presence.NewRegistry()
	persister := relay.NewPersister(messageStore, logger, cfg.PersistQueueDepth)
	router := relay.NewRouter(registry, persister, logger)
	lifecycle := relay.NewLifecycle(router, logger)
	issuer := auth.NewTokenIssuer()

	h := handlers.NewHandler(lifecycle, router, registry, messageStore, provider, issuer, logger, cfg.SessionBuffer)

	// Create server
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     api.NewRouter(logger, h, redisStore, cfg.RateLimitWhitelist),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the events stream is long-lived.
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting relay server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	// Flush pending envelope appends before the store closes.
	persister.Close()

	logger.Info().Msg("server stopped")
}
