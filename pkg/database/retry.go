package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Retry repeats a startup operation against a database that may still be
// coming up. Waits double from BaseWait with up to 25% jitter either way.
type Retry struct {
	Attempts  int
	BaseWait  time.Duration
	Retryable func(error) bool // nil retries every error
	Logger    *slog.Logger     // nil disables retry warnings
}

// DefaultRetry makes three attempts, waiting about 1s then 2s.
func DefaultRetry(logger *slog.Logger) Retry {
	return Retry{Attempts: 3, BaseWait: time.Second, Logger: logger}
}

func (r Retry) backoff(attempt int) time.Duration {
	base := r.BaseWait << max(attempt, 0)
	spread := float64(base) / 4
	return base + time.Duration(spread*(2*rand.Float64()-1)) // #nosec G404 -- jitter only
}

// Do calls fn until it succeeds, its error is not retryable, attempts run
// out or ctx ends. The last error of fn is returned.
func (r Retry) Do(ctx context.Context, what string, fn func() error) error {
	attempts := max(r.Attempts, 1)
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt == attempts || (r.Retryable != nil && !r.Retryable(err)) {
			return err
		}

		wait := r.backoff(attempt - 1)
		if r.Logger != nil {
			r.Logger.WarnContext(ctx, what+" failed, retrying",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", attempts),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: gave up after attempt %d: %w", what, attempt, errors.Join(ctx.Err(), err))
		case <-timer.C:
		}
	}
}

// isConnectionError reports whether err is a transient connectivity problem
// rather than an error returned by the server for a statement.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return false
	}

	var (
		connectErr *pgconn.ConnectError
		netErr     net.Error
	)
	switch {
	case errors.As(err, &connectErr), errors.As(err, &netErr):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return true
	}
	return pgconn.Timeout(err) || pgconn.SafeToRetry(err)
}
