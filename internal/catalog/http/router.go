package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/rocketshoes/internal/catalog"
	"github.com/utafrali/rocketshoes/pkg/health"
	"github.com/utafrali/rocketshoes/pkg/middleware"
)

// NewRouter creates the stock API router.
func NewRouter(c catalog.Catalog, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("stock-api"))
	r.Use(middleware.Tracing("stock-api", middleware.WithUntracedPrefixes("/health/", "/metrics")))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	h := NewHandler(c, logger)
	r.Get("/stock/{id}", h.GetStock)
	r.Get("/products/{id}", h.GetProduct)
	r.Get("/products", h.ListProducts)

	return r
}
