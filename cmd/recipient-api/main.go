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

	"github.com/sungwon/recipient-check/internal/api"
	"github.com/sungwon/recipient-check/internal/app"
	"github.com/sungwon/recipient-check/internal/auth"
	"github.com/sungwon/recipient-check/internal/config"
	"github.com/sungwon/recipient-check/internal/logger"
)

func main() {
	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, closeLog := logger.NewFromConfig(logger.Config{
		Level:     cfg.Logging.Level,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	defer closeLog.Close()
	log.Info().Msg("starting recipient-check API server")

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log, app.Options{RequireValidator: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	var verifier *auth.Verifier
	if cfg.Auth.APIKeyHash != "" {
		verifier = auth.NewVerifier(cfg.Auth.APIKeyHash)
	} else {
		log.Warn().Msg("auth.api_key_hash is empty; /api/v1 is unauthenticated")
	}

	router := api.NewRouter(api.Deps{
		Orchestrator: a.Orchestrator,
		Verifier:     verifier,
		Reports:      a.Reports,
		Ready:        a.Ready,
		Log:          log,
	})

	addr := cfg.API.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
