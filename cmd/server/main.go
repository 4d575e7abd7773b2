package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/hverma/ringline/internal/adapters/http"
	wssignal "github.com/hverma/ringline/internal/adapters/signal"
	"github.com/hverma/ringline/internal/app"
	"github.com/hverma/ringline/internal/config"
	"github.com/hverma/ringline/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Secret == "" {
		log.Fatal().Msg("no JWT secret configured, refusing to accept unauthenticated connections")
	}

	clock := core.SystemClock()
	registry := app.NewRegistry()
	store := app.NewSessionStore(clock)
	delivery := app.NewDelivery(registry)
	engine := app.NewEngine(registry, store, delivery)
	supervisor := app.NewSupervisor(engine, store, clock,
		cfg.RingTimeout, cfg.NegotiationTimeout, cfg.SweepInterval)
	go supervisor.Run(ctx)

	ctl := wssignal.NewCallWSController(engine, registry, cfg)
	r := router.SetupRouter(ctx, cfg, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Ringline signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
