package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/rocketshoes/pkg/health"
	"github.com/utafrali/rocketshoes/pkg/middleware"
)

// RouterOptions configures the cart API's HTTP surface.
type RouterOptions struct {
	CORS       middleware.CORSConfig
	PprofCIDRs []string
	RateLimit  middleware.RateLimitConfig
}

// NewRouter creates a chi router with all cart API routes registered.
func NewRouter(store CartStore, healthHandler *health.Handler, logger *slog.Logger, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(opts.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("cart-api"))
	r.Use(middleware.Tracing("cart-api", middleware.WithUntracedPrefixes("/health/", "/metrics")))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, opts.PprofCIDRs, logger)

	cartHandler := NewCartHandler(store, logger)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimit, logger))
		r.Use(ContentTypeJSON)

		r.Get("/", cartHandler.GetCart)
		r.Post("/items", cartHandler.AddProduct)
		r.Put("/items/{productId}", cartHandler.UpdateAmount)
		r.Post("/items/{productId}/increment", cartHandler.Increment)
		r.Post("/items/{productId}/decrement", cartHandler.Decrement)
		r.Delete("/items/{productId}", cartHandler.RemoveProduct)
	})

	return r
}
