package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	catalogclient "github.com/utafrali/rocketshoes/internal/catalog/http"
	"github.com/utafrali/rocketshoes/internal/config"
	"github.com/utafrali/rocketshoes/internal/event"
	handler "github.com/utafrali/rocketshoes/internal/handler/http"
	"github.com/utafrali/rocketshoes/internal/notify"
	"github.com/utafrali/rocketshoes/internal/service"
	"github.com/utafrali/rocketshoes/pkg/health"
	"github.com/utafrali/rocketshoes/pkg/httpclient"
	pkgkafka "github.com/utafrali/rocketshoes/pkg/kafka"
	"github.com/utafrali/rocketshoes/pkg/middleware"
	"github.com/utafrali/rocketshoes/pkg/tracing"
)

const serviceName = "cart-api"

// App wires together all dependencies and runs the cart API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	closers        []namedCloser
	shutdownTracer func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	return newApp(cfg, logger, prometheus.DefaultRegisterer)
}

func newApp(cfg *config.Config, logger *slog.Logger, registerer prometheus.Registerer) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Tracing
	traceCfg := tracing.DefaultConfig(serviceName)
	traceCfg.Environment = cfg.Environment
	traceCfg.OTLPEndpoint = cfg.OTELEndpoint
	traceCfg.SampleRate = cfg.OTELSampleRate
	traceCfg.Enabled = cfg.OTELEnabled
	shutdownTracer, err := tracing.InitTracer(ctx, traceCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	app := &App{
		cfg:            cfg,
		logger:         logger,
		shutdownTracer: shutdownTracer,
	}

	// Snapshot storage
	store, err := openStorage(ctx, cfg, logger, registerer)
	if err != nil {
		app.release()
		return nil, fmt.Errorf("open cart storage: %w", err)
	}
	app.closers = append(app.closers, store.closers...)

	// Stock API client
	breaker := httpclient.NewCircuitBreakerClient(httpclient.New(cfg.HTTPClient()), cfg.CircuitBreaker(), logger)
	stockAPI := catalogclient.NewClient(cfg.StockAPIURL, breaker)
	logger.Info("stock api client initialized",
		slog.String("url", cfg.StockAPIURL),
		slog.Duration("timeout", cfg.StockAPITimeout),
	)

	// Events
	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	deps := service.Dependencies{
		Repository: store.repo,
		Stock:      stockAPI,
		Products:   stockAPI,
		Logger:     logger,
	}
	var producer *pkgkafka.Producer
	if cfg.EventsEnabled() {
		producerCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
		producerCfg.Async = cfg.KafkaAsync
		producer = pkgkafka.NewProducer(producerCfg, logger)
		app.closers = append(app.closers, namedCloser{name: "kafka producer", close: producer.Close})
		eventProducer := event.NewProducer(producer, logger)
		notifiers = append(notifiers, eventProducer)
		deps.Publisher = eventProducer
		logger.Info("kafka producer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Bool("async", cfg.KafkaAsync),
		)
	} else {
		logger.Info("kafka brokers not configured, cart events disabled")
	}
	deps.Notifier = notifiers

	cartService, err := service.NewCartService(ctx, deps)
	if err != nil {
		app.release()
		return nil, fmt.Errorf("create cart service: %w", err)
	}

	// Health checks
	healthHandler := health.NewHandler()
	healthHandler.Register("snapshot_store", store.repo.Ping)
	healthHandler.Register("stock_api", stockAPI.Ping, health.NonCritical())
	if producer != nil {
		healthHandler.Register("event_bus", producer.Ping, health.NonCritical())
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	router := handler.NewRouter(cartService, healthHandler, logger, handler.RouterOptions{
		CORS:       cors,
		PprofCIDRs: cfg.PprofAllowedCIDRs,
		RateLimit:  cfg.RateLimit(),
	})

	app.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return app, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	if err := serve(ctx, a.httpServer, a.logger); err != nil {
		a.release()
		return err
	}
	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	a.release()

	a.logger.Info("application shutdown complete")
	return nil
}

// release closes storage, the producer and the tracer, in reverse order of
// creation.
func (a *App) release() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Error(c.name+" close error", slog.String("error", err.Error()))
		}
	}
	a.closers = nil

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdownTracer(ctx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}
}

// serve runs srv until ctx is canceled. It returns nil on cancellation and
// the listen error otherwise.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)

	go func() {
		logger.Info("starting HTTP server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return nil
	case err := <-errCh:
		return err
	}
}
