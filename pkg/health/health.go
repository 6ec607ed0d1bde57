// Package health serves liveness and readiness probes backed by named
// dependency checks.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/rocketshoes/pkg/httputil"
)

// Checker reports whether a dependency (snapshot store, stock API) is usable.
type Checker func(ctx context.Context) error

// Status represents the health status of a component.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

const defaultTimeout = 5 * time.Second

var checkUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "rocketshoes_health_check_up",
	Help: "1 when the last run of a readiness check succeeded, 0 otherwise.",
}, []string{"check"})

// Response is the JSON body returned by both probes.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one check run.
type CheckResult struct {
	Status    Status `json:"status"`
	Critical  bool   `json:"critical"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// CheckOption customizes a registered check.
type CheckOption func(*check)

// NonCritical marks a check whose failure only degrades readiness.
func NonCritical() CheckOption {
	return func(c *check) { c.critical = false }
}

type check struct {
	fn       Checker
	critical bool
}

// Option customizes a Handler.
type Option func(*Handler)

// WithTimeout bounds a whole readiness run.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// Handler serves liveness and readiness probes.
type Handler struct {
	mu      sync.RWMutex
	checks  map[string]check
	timeout time.Duration
	now     func() time.Time
}

func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		checks:  make(map[string]check),
		timeout: defaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a named check, critical unless NonCritical is given.
// Registering a name again replaces the earlier check.
func (h *Handler) Register(name string, fn Checker, opts ...CheckOption) {
	c := check{fn: fn, critical: true}
	for _, opt := range opts {
		opt(&c)
	}

	h.mu.Lock()
	h.checks[name] = c
	h.mu.Unlock()
}

// LivenessHandler answers 200 while the process runs.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, Response{Status: StatusUp, Timestamp: h.now().UTC()})
	}
}

// ReadinessHandler runs every check and answers 503 when a critical one is
// down.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		results := h.Check(ctx)
		overall := Overall(results)

		code := http.StatusOK
		if overall == StatusDown {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, Response{Status: overall, Timestamp: h.now().UTC(), Checks: results})
	}
}

// Overall folds check results into one status: down if any critical check
// is down, degraded if only non-critical ones are, else up.
func Overall(results map[string]CheckResult) Status {
	status := StatusUp
	for _, res := range results {
		if res.Status != StatusDown {
			continue
		}
		if res.Critical {
			return StatusDown
		}
		status = StatusDegraded
	}
	return status
}

// Check runs all checks concurrently and returns their results by name.
func (h *Handler) Check(ctx context.Context) map[string]CheckResult {
	h.mu.RLock()
	checks := make(map[string]check, len(h.checks))
	for name, c := range h.checks {
		checks[name] = c
	}
	h.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(checks))
		g       errgroup.Group
	)
	for name, c := range checks {
		g.Go(func() error {
			res := h.run(ctx, name, c)
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (h *Handler) run(ctx context.Context, name string, c check) CheckResult {
	start := h.now()
	err := c.fn(ctx)

	res := CheckResult{
		Status:    StatusUp,
		Critical:  c.critical,
		LatencyMS: h.now().Sub(start).Milliseconds(),
	}
	up := 1.0
	if err != nil {
		res.Status, res.Error = StatusDown, err.Error()
		up = 0
	}
	checkUp.WithLabelValues(name).Set(up)
	return res
}
