package httpclient

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"
)

// Config holds HTTP client configuration.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	MaxConnsPerHost int
	UserAgent       string
}

// DefaultConfig returns defaults for lookups against the stock API. Retries
// are off: a failed lookup fails the cart operation that issued it.
func DefaultConfig() Config {
	return Config{
		Timeout:         5 * time.Second,
		RetryWaitMin:    100 * time.Millisecond,
		RetryWaitMax:    time.Second,
		MaxConnsPerHost: 32,
		UserAgent:       "rocketshoes-cart",
	}
}

// Client is an http.Client with pooled connections and optional retries of
// idempotent requests.
type Client struct {
	http *http.Client
	cfg  Config
}

// New creates a new HTTP client.
func New(cfg Config) *Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         dialer.DialContext,
				ForceAttemptHTTP2:   true,
				MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
				MaxConnsPerHost:     cfg.MaxConnsPerHost,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
		cfg: cfg,
	}
}

// Do sends req bound to ctx. Transport errors and 5xx answers other than 501
// are retried up to MaxRetries times with jittered exponential backoff; the
// last response or error is returned.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.cfg.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.http.Do(req)
		last := attempt >= c.cfg.MaxRetries
		switch {
		case err != nil && (last || !isRetryableError(err)):
			return nil, fmt.Errorf("%s %s: %d attempt(s): %w", req.Method, req.URL.Redacted(), attempt+1, err)
		case err == nil && (last || !retryableStatus(resp.StatusCode)):
			return resp, nil
		case err == nil:
			_ = resp.Body.Close()
		}

		if err := c.wait(ctx, attempt); err != nil {
			return nil, err
		}
	}
}

// Get performs a GET request accepting JSON.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := newGetRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

func newGetRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// wait sleeps before retry attempt+1, or returns early when ctx ends.
func (c *Client) wait(ctx context.Context, attempt int) error {
	d := min(c.cfg.RetryWaitMin<<attempt, c.cfg.RetryWaitMax)
	t := time.NewTimer(addJitter(d))
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func retryableStatus(status int) bool {
	return status >= 500 && status != http.StatusNotImplemented
}

// isRetryableError reports whether a transport error is worth another attempt.
// Cancellation never is.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// addJitter spreads d by ±25%.
func addJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	spread := float64(d) / 4
	return d + time.Duration(spread*(2*rand.Float64()-1)) // #nosec G404 -- non-cryptographic jitter
}
