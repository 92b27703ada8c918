// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/biolink/internal/config"
	"github.com/codr1/biolink/internal/db"
	"github.com/codr1/biolink/internal/metrics"
	"github.com/codr1/biolink/internal/scheduler"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	// Contexts without a request logger fall back to the global one.
	zerolog.DefaultContextLogger = &log.Logger
}

// startInventory fills the stored theme gauges now and on cfg's schedule.
func startInventory(ctx context.Context, cfg *config.Config, database *db.DB, m *metrics.Metrics) *scheduler.Service {
	if err := scheduler.RunInventory(ctx, database.Queries, m); err != nil {
		log.Error().Err(err).Msg("Initial theme inventory failed")
	}

	sched, err := scheduler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if err := scheduler.RegisterInventoryJob(sched, database.Queries, m, cfg.Themes.InventoryCron); err != nil {
		log.Fatal().Err(err).Msg("Failed to register theme inventory job")
	}
	sched.Start()
	return sched
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config/app.yaml"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)
	if cfg.Features.EnableDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	if cfg.Themes.ShouldSeed() {
		if err := database.SeedSystemThemes(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed system themes")
		}
	}

	var (
		m     *metrics.Metrics
		sched *scheduler.Service
	)
	if cfg.Features.EnableMetrics {
		m = metrics.New()
		sched = startInventory(ctx, cfg, database, m)
	}

	// Create server instance
	server := newServer(cfg, database, m)

	g, ctx := errgroup.WithContext(ctx)

	// Run server
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if sched != nil {
			if err := sched.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop scheduler")
			}
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
