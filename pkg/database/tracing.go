package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/utafrali/rocketshoes/pkg/database"

var queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "rocketshoes_db_query_duration_seconds",
	Help:    "Duration of snapshot store statements.",
	Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
}, []string{"operation", "result"})

// QueryTracer wraps statements in client spans, records their latency and
// warns about those slower than SlowThreshold. The zero value traces through
// the global provider and never warns.
type QueryTracer struct {
	SlowThreshold time.Duration
	Logger        *slog.Logger
	Provider      trace.TracerProvider
}

// Trace starts a span for operation. Call the returned function with the
// operation's error when it completes:
//
//	ctx, end := tracer.Trace(ctx, "SaveSnapshot", upsertSnapshot)
//	defer func() { end(err) }()
func (t QueryTracer) Trace(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	provider := t.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	start := time.Now()
	ctx, span := provider.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBOperation(operation),
			semconv.DBStatement(statement),
		),
	)

	return ctx, func(err error) {
		elapsed := time.Since(start)
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		queryDuration.WithLabelValues(operation, result).Observe(elapsed.Seconds())

		if t.Logger != nil && t.SlowThreshold > 0 && elapsed >= t.SlowThreshold {
			t.Logger.WarnContext(ctx, "slow query",
				slog.String("operation", operation),
				slog.Duration("duration", elapsed),
				slog.String("result", result),
			)
		}
	}
}
