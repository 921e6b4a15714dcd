package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/jobhunt-api/internal/config"
	"github.com/yourusername/jobhunt-api/internal/handler"
	"github.com/yourusername/jobhunt-api/internal/middleware"
	"github.com/yourusername/jobhunt-api/internal/repository"
	"github.com/yourusername/jobhunt-api/internal/safejson"
	"github.com/yourusername/jobhunt-api/internal/service"
)

func main() {
	// ── Logging ──────────────────────────────────────────
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// ── Config ───────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("Starting JobHunt API")

	// ── Database ─────────────────────────────────────────
	ctx := context.Background()
	poolCfg, err := cfg.PoolConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid database config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connected")

	// ── Services ─────────────────────────────────────────
	parser := safejson.New(log.Logger)
	jobRepo := repository.NewJobRepo(pool)
	jobService := service.NewJobService(jobRepo, parser, cfg.DefaultPageSize, cfg.MaxPageSize)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS)
	defer rateLimiter.Stop()

	// ── Router ───────────────────────────────────────────
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := handler.NewRouter(handler.RouterDeps{
		Jobs:           jobService,
		Parser:         parser,
		DB:             pool,
		RateLimiter:    rateLimiter,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// ── Server ───────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("JobHunt API server running")

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
