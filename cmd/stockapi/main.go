package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/utafrali/rocketshoes/internal/app"
	"github.com/utafrali/rocketshoes/internal/config"
	"github.com/utafrali/rocketshoes/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadStockAPI()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{
		Service:     "stock-api",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	log.Info("starting stock api",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
	)

	api, err := app.NewStockAPI(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize stock api: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := api.Run(ctx); err != nil {
		return fmt.Errorf("run stock api: %w", err)
	}

	log.Info("stock api stopped")
	return nil
}
