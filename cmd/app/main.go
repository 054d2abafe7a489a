package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"weathersub.app/internal/app"
	"weathersub.app/internal/config"
	"weathersub.app/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found or error loading it")
	}

	if err := run(); err != nil {
		slog.Error("Application stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log, err := logger.NewFromOptions(logger.Options{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		FilePath: cfg.Log.FilePath,
	})
	if err != nil {
		return err
	}
	defer log.Close()
	slog.SetDefault(log.Logger)

	application, err := app.NewApplication(cfg, log.Logger)
	if err != nil {
		return err
	}

	slog.Info("Server configuration", "port", cfg.Server.Port, "baseURL", cfg.AppBaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return application.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Received shutdown signal...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return application.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
