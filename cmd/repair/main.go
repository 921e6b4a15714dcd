// Command repair rewrites job list columns (requirements, responsibilities,
// skills) that do not hold canonical JSON arrays. Columns that cannot be
// decoded are reported and left alone. It runs as a dry run unless
// -dry-run=false is given.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/jobhunt-api/internal/config"
	"github.com/yourusername/jobhunt-api/internal/repository"
	"github.com/yourusername/jobhunt-api/internal/safejson"
	"github.com/yourusername/jobhunt-api/internal/service"
)

func main() {
	dryRun := flag.Bool("dry-run", true, "report changes without writing them")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poolCfg, err := cfg.PoolConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid database config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	jobService := service.NewJobService(
		repository.NewJobRepo(pool),
		safejson.New(log.Logger),
		cfg.DefaultPageSize, cfg.MaxPageSize,
	)

	report, err := jobService.Repair(ctx, *dryRun)
	if err != nil {
		log.Error().Err(err).Int("scanned", report.Scanned).Msg("Repair failed")
		pool.Close()
		os.Exit(1)
	}

	log.Info().
		Bool("dryRun", report.DryRun).
		Int("scanned", report.Scanned).
		Int("changed", report.Changed).
		Interface("byField", report.ByField).
		Int("unparseable", report.Unparseable).
		Msg("Repair finished")
}
