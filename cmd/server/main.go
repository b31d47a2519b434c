package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	router "github.com/vocably/vocably/internal/adapters/http"
	"github.com/vocably/vocably/internal/adapters/media"
	wssignal "github.com/vocably/vocably/internal/adapters/signal"
	"github.com/vocably/vocably/internal/app"
	"github.com/vocably/vocably/internal/app/orch"
	"github.com/vocably/vocably/internal/config"
	"github.com/vocably/vocably/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("vocably server failed")
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "usage: vocably [flags]")
		config.Flags().PrintDefaults()
		return nil
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	mirror := app.NewAsyncMirror(db, cfg.Occupancy.MirrorTimeout)
	mirror.Start()
	defer mirror.Close()

	reg := app.NewRegistry()
	notifier := app.NewDirectNotifier(reg, app.PolicyByName(cfg.Observer.SlowPolicy))
	occupancy := app.NewOccupancyStore(notifier, mirror)
	reaper := app.NewReaper(occupancy, reg, db,
		app.WithInterval(cfg.Occupancy.ReapInterval),
		app.WithGracePeriod(cfg.Occupancy.GracePeriod),
	)

	o := &orch.Orchestrator{
		Registry:  reg,
		Occupancy: occupancy,
		Reaper:    reaper,
		Rooms:     db,
		Profiles:  db,
	}
	if err := o.Seed(ctx); err != nil {
		log.Error().Err(err).Msg("seed occupancy")
	}

	reaperDone := make(chan struct{})
	go func() {
		defer close(reaperDone)
		reaper.Run(ctx)
	}()

	issuer := media.NewIssuer(cfg.Media.APIKey, cfg.Media.APISecret, cfg.Media.ServerURL, cfg.Media.TokenTTL)
	if !issuer.Configured() {
		log.Warn().Msg("media service not configured, /api/connection-details will answer 503")
	}
	limiter := wssignal.NewRateLimiter(cfg.Rate.RPS, cfg.Rate.Burst)

	r := router.SetupRouter(ctx, cfg, router.Deps{Orch: o, Media: issuer, Limiter: limiter})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Vocably server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	<-reaperDone
	log.Info().Msg("Server exited gracefully")
	return nil
}
