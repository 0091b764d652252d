package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/user/site-auditor/internal/app"
	"github.com/user/site-auditor/internal/delivery/http/handler"
	"github.com/user/site-auditor/internal/delivery/http/router"
	"github.com/user/site-auditor/internal/usecase"
	"github.com/user/site-auditor/pkg/config"
	"github.com/user/site-auditor/pkg/logger"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		os.Stderr.WriteString("could not load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Logger initialized", zap.String("level", cfg.LogLevel))

	// Background runs stop between sites once this is cancelled.
	baseCtx, stopRuns := context.WithCancel(context.Background())
	defer stopRuns()

	// --- Storage and use cases ---
	application, err := app.New(baseCtx, cfg, prometheus.DefaultRegisterer, log)
	if err != nil {
		log.Fatal("could not initialize application", zap.Error(err))
	}
	defer application.Close()

	// --- HTTP Server ---
	dependencies := map[string]handler.Pinger{
		"postgres": application.DB,
		"redis": handler.PingFunc(func(ctx context.Context) error {
			return application.Redis.Ping(ctx).Err()
		}),
	}
	apiHandler := handler.NewHandler(application.Controller, dependencies, log.Named("http"))
	httpRouter := router.New(apiHandler, application.Metrics, prometheus.DefaultGatherer, log.Named("http"))

	server := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     httpRouter,
		ReadTimeout: 5 * time.Second,
		// Single-site runs answer synchronously and can take minutes.
		WriteTimeout: cfg.TechTimeout + cfg.RenderTimeout + time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
		}
	}()

	if cfg.AutoRunOnStart {
		switch err := application.Controller.RunPending(baseCtx); {
		case errors.Is(err, usecase.ErrRunInProgress):
			log.Info("startup run skipped, another run holds the lock")
		case err != nil:
			log.Error("startup run failed to start", zap.Error(err))
		default:
			log.Info("startup run over pending sites started")
		}
	}

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	stopRuns()
	log.Info("waiting for the site in progress to finish")
	application.Controller.Wait()

	log.Info("server exiting")
}
