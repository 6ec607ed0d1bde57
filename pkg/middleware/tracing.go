package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/rocketshoes/pkg/logger"
)

const correlationIDAttr = attribute.Key("rocketshoes.correlation_id")

type tracingOptions struct {
	provider   trace.TracerProvider
	propagator propagation.TextMapPropagator
	skip       []string
}

// TracingOption customizes the Tracing middleware.
type TracingOption func(*tracingOptions)

// WithTracerProvider replaces the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(o *tracingOptions) { o.provider = tp }
}

// WithUntracedPrefixes leaves requests whose path starts with any prefix
// (probes, metrics scrapes) without a span.
func WithUntracedPrefixes(prefixes ...string) TracingOption {
	return func(o *tracingOptions) { o.skip = append(o.skip, prefixes...) }
}

// Tracing starts a server span per request, continuing any W3C trace context
// found in the inbound headers and echoing it on the response. Once routing
// has run the span is renamed to the chi route pattern.
func Tracing(serviceName string, opts ...TracingOption) func(http.Handler) http.Handler {
	o := tracingOptions{
		provider:   otel.GetTracerProvider(),
		propagator: otel.GetTextMapPropagator(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	tracer := o.provider.Tracer("github.com/utafrali/rocketshoes/" + serviceName)

	untraced := func(path string) bool {
		for _, p := range o.skip {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if untraced(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := o.propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(requestAttributes(r)...),
			)
			defer span.End()

			o.propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			if pattern := routePattern(r); pattern != "" {
				span.SetName(r.Method + " " + pattern)
				span.SetAttributes(semconv.HTTPRoute(pattern))
			}
			span.SetAttributes(semconv.HTTPResponseStatusCode(rec.status))
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}
		})
	}
}

func requestAttributes(r *http.Request) []attribute.KeyValue {
	scheme := "http"
	switch {
	case r.TLS != nil:
		scheme = "https"
	case r.Header.Get("X-Forwarded-Proto") != "":
		scheme = r.Header.Get("X-Forwarded-Proto")
	}

	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.URLPath(r.URL.Path),
		semconv.URLScheme(scheme),
		semconv.UserAgentOriginal(r.UserAgent()),
		semconv.ClientAddress(r.RemoteAddr),
	}
	if id := logger.CorrelationIDFromContext(r.Context()); id != "" {
		attrs = append(attrs, correlationIDAttr.String(id))
	}
	return attrs
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
