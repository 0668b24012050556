package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"moviemeter/cmd/app"
	"moviemeter/internal/config"
	"moviemeter/internal/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// setting up config
	cfg, envLoaded := config.LoadConfig()

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if !envLoaded {
		logging.Debug().Msg(".env file not found, using process environment")
	}

	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to start")
	}
	defer application.Close()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Starting the server
	go func() {
		logging.Info().Str("addr", server.Addr).Str("database", cfg.DB.DbNAME).Msg("server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}
