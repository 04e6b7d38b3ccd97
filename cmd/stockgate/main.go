package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/harborline/stockgate/internal/config"
	"github.com/harborline/stockgate/internal/domain"
	"github.com/harborline/stockgate/internal/server"
	"github.com/harborline/stockgate/internal/store/postgres"
	redisstore "github.com/harborline/stockgate/internal/store/redis"
	"github.com/harborline/stockgate/internal/upstream"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	// Initialize structured logging from environment.
	level, parseErr := zerolog.ParseLevel(os.Getenv("STOCKGATE_LOG_LEVEL"))
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("STOCKGATE_LOG_FORMAT") == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Connect the configured session store backend.
	var sessions domain.SessionStore
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		store, storeErr := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if storeErr != nil {
			return storeErr
		}
		defer store.Close()
		sessions = store
	default:
		if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
			return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
		}
		store, storeErr := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
		if storeErr != nil {
			return storeErr
		}
		defer store.Close()
		sessions = store.Sessions()
	}

	// The executor builds a tenant-scoped upstream client per request.
	exec := upstream.NewExecutor(nil, cfg.App.APIVersion)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, sessions, exec)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("session_backend", cfg.Session.Backend).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
