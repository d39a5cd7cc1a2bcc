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
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/trailhop/gateway/internal/api/activities"
	"github.com/trailhop/gateway/internal/api/dashboard"
	"github.com/trailhop/gateway/internal/api/reservations"
	"github.com/trailhop/gateway/internal/booking"
	"github.com/trailhop/gateway/internal/config"
	"github.com/trailhop/gateway/internal/scheduler"
	"github.com/trailhop/gateway/internal/upstream"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	client := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout())

	cache, err := booking.NewBadgeCache(cfg.Cache.Size)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create badge cache")
	}

	loader := booking.NewLoader(client)
	reconciler := booking.NewReconciler(client, cache)
	watchlist := booking.NewWatchlist(nil)

	dashboard.InitHandlers(dashboard.Deps{
		Client:     client,
		Loader:     loader,
		Reconciler: reconciler,
		Cache:      cache,
		Watchlist:  watchlist,
	})
	reservations.InitHandlers(client)
	activities.InitHandlers(client)

	sched, err := scheduler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	refreshDeps := scheduler.RefreshDeps{
		Loader:        loader,
		Reconciler:    reconciler,
		Cache:         cache,
		Watchlist:     watchlist,
		WatchTTL:      time.Duration(cfg.Refresh.WatchTTLMinutes) * time.Minute,
		FallbackToken: cfg.Refresh.FallbackToken,
	}
	if err := scheduler.RegisterRefreshJob(sched, cfg.Refresh.Cron, refreshDeps); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}
	sched.Start()

	server := newServer(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("app", cfg.App.Name).
			Int("port", cfg.App.Port).
			Str("upstream", cfg.Upstream.BaseURL).
			Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := sched.Stop(); err != nil {
			log.Warn().Err(err).Msg("Scheduler shutdown error")
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
