// Package notify delivers user-facing failure messages for cart operations.
package notify

import (
	"context"
	"log/slog"
)

// Kind classifies a failed cart operation.
type Kind string

const (
	KindOutOfStock       Kind = "out_of_stock"
	KindNotFound         Kind = "not_found"
	KindTransportFailure Kind = "transport_failure"
)

// Operation names the cart operation that failed.
type Operation string

const (
	OperationAdd          Operation = "add_product"
	OperationRemove       Operation = "remove_product"
	OperationUpdateAmount Operation = "update_product_amount"
)

// Notification is one failure message shown to the user.
type Notification struct {
	Operation Operation `json:"operation"`
	Kind      Kind      `json:"kind"`
	ProductID int       `json:"product_id"`
	Message   string    `json:"message"`
}

// Notifier delivers notifications. Delivery is fire-and-forget: a Notifier
// handles its own failures and never blocks the caller on them.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications as WARN log lines.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	l.logger.WarnContext(ctx, n.Message,
		slog.String("operation", string(n.Operation)),
		slog.String("kind", string(n.Kind)),
		slog.Int("product_id", n.ProductID),
	)
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

// Nop discards notifications.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Notification) {}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification)

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }
