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

	router "github.com/dkeye/beacon/internal/adapters/http"
	ws "github.com/dkeye/beacon/internal/adapters/signal"
	"github.com/dkeye/beacon/internal/app"
	"github.com/dkeye/beacon/internal/auth"
	"github.com/dkeye/beacon/internal/config"
	"github.com/dkeye/beacon/internal/domain"
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
		log.Error().Err(err).Msg("failed to load config")
	}

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	directory := app.NewStaticDirectory()
	for _, u := range cfg.Users {
		directory.Add(domain.User{ID: domain.UserID(u.ID), Username: u.Username, Avatar: u.Avatar})
	}
	presence := app.NewPresence()
	rooms := app.NewRooms()
	signals := app.NewSignalStore()
	calls := app.NewCalls(presence, signals)

	gateway := ws.NewController(cfg, presence, rooms, calls, verifier, directory)
	go calls.Run(ctx, cfg.SweepInterval, cfg.RingTimeout, gateway.NotifyCallExpired)

	api := &router.API{
		Calls:    calls,
		Signals:  signals,
		Presence: presence,
		Verifier: verifier,
		ICEUrls:  cfg.ICEServers,
	}

	r := router.SetupRouter(ctx, cfg, api, gateway)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Beacon server started")
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
