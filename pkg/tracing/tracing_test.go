package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestProvider(t *testing.T, rate float64) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	cfg := DefaultConfig("cart-api")
	cfg.Environment = "test"
	cfg.SampleRate = rate

	exporter := tracetest.NewInMemoryExporter()
	tp, err := NewProvider(context.Background(), cfg, sdktrace.WithSyncer(exporter))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exporter
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("stock-api")

	assert.Equal(t, "stock-api", cfg.ServiceName)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.Equal(t, "localhost:4318", cfg.OTLPEndpoint)
}

func TestInitTracer_DisabledLeavesGlobalProvider(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := InitTracer(context.Background(), DefaultConfig("cart-api"))

	require.NoError(t, err)
	assert.Same(t, before, otel.GetTracerProvider())
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracer_EnabledInstallsSDKProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	cfg := DefaultConfig("cart-api")
	cfg.Enabled = true
	cfg.OTLPEndpoint = "127.0.0.1:0"

	shutdown, err := InitTracer(context.Background(), cfg)
	require.NoError(t, err)

	assert.IsType(t, &sdktrace.TracerProvider{}, otel.GetTracerProvider())
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")

	// The collector is unreachable, so the flush may fail.
	_ = shutdown(context.Background())
}

func TestNewProvider_DescribesService(t *testing.T) {
	tp, exporter := newTestProvider(t, 1)

	_, span := tp.Tracer("test").Start(context.Background(), "CartService.AddProduct")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	attrs := map[string]string{}
	for _, kv := range spans[0].Resource.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "cart-api", attrs["service.name"])
	assert.Equal(t, "0.1.0", attrs["service.version"])
	assert.Equal(t, "test", attrs["deployment.environment"])
}

func TestNewProvider_Sampling(t *testing.T) {
	sampledParent := trace.ContextWithRemoteSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x4b, 0xf9},
		SpanID:     trace.SpanID{0x01},
		TraceFlags: trace.FlagsSampled,
	}))

	tests := []struct {
		name string
		rate float64
		ctx  context.Context
		want int
	}{
		{"always", 1, context.Background(), 1},
		{"above one", 2, context.Background(), 1},
		{"never", 0, context.Background(), 0},
		{"sampled parent wins over rate", 0, sampledParent, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, exporter := newTestProvider(t, tt.rate)

			_, span := tp.Tracer("test").Start(tt.ctx, "op")
			span.End()

			assert.Len(t, exporter.GetSpans(), tt.want)
		})
	}
}

func TestSampler_Ratio(t *testing.T) {
	assert.Contains(t, Sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestTracer_UsesGlobalProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	tp, exporter := newTestProvider(t, 1)
	otel.SetTracerProvider(tp)

	_, span := Tracer("github.com/utafrali/rocketshoes/internal/service").Start(context.Background(), "op")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "github.com/utafrali/rocketshoes/internal/service", spans[0].InstrumentationScope.Name)
}
