package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	catalogapi "github.com/utafrali/rocketshoes/internal/catalog/http"
	"github.com/utafrali/rocketshoes/internal/catalog/memory"
	"github.com/utafrali/rocketshoes/internal/config"
	"github.com/utafrali/rocketshoes/pkg/health"
)

// StockAPI serves the product catalog and stock levels the cart API
// validates against.
type StockAPI struct {
	logger     *slog.Logger
	httpServer *http.Server
}

// NewStockAPI loads the catalog and builds the stock API server.
func NewStockAPI(cfg *config.StockAPIConfig, logger *slog.Logger) (*StockAPI, error) {
	var (
		c   *memory.Catalog
		err error
	)
	if cfg.SeedFile != "" {
		c, err = memory.LoadFile(cfg.SeedFile)
	} else {
		c, err = memory.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	products, err := c.List(context.Background())
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	logger.Info("catalog loaded",
		slog.Int("products", len(products)),
		slog.String("seed_file", cfg.SeedFile),
	)

	healthHandler := health.NewHandler()
	healthHandler.Register("catalog", func(ctx context.Context) error {
		_, err := c.List(ctx)
		return err
	})

	return &StockAPI{
		logger: logger,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:      catalogapi.NewRouter(c, healthHandler, logger),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (s *StockAPI) Run(ctx context.Context) error {
	if err := serve(ctx, s.httpServer, s.logger); err != nil {
		return err
	}
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *StockAPI) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("stock api shutdown complete")
	return nil
}
