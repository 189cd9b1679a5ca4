// Package main runs the scoring API server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/scorelayer/scoring/internal/auth"
	"github.com/scorelayer/scoring/internal/config"
	"github.com/scorelayer/scoring/internal/httpapi"
	"github.com/scorelayer/scoring/internal/logging"
	"github.com/scorelayer/scoring/internal/method"
	"github.com/scorelayer/scoring/internal/scoring"
	"github.com/scorelayer/scoring/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.Int("port", 0, "Listen port (overrides config)")
	logFile := flag.String("log", "", "Log file path (default stdout)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logFile != "" {
		cfg.Logging.Output = *logFile
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger := logging.New(cfg.Logging)
	defer logger.Close()

	backend := store.NewRedisBackend(cfg.Redis)
	defer backend.Close()
	kv := store.New(backend, logger)

	scorer := scoring.NewService(kv, logger)
	authenticator := auth.New(cfg.Auth)
	dispatcher := method.NewDispatcher(authenticator, scorer, logger)
	router := httpapi.NewRouter(dispatcher, kv, logger, cfg.RateLimit)

	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting server at %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-errCh:
		logger.WithError(err).Error("Server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown failed")
	}
}
