package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/internal/notify"
	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
)

// operation carries the span, outcome bookkeeping and deferred deliveries
// of one cart operation.
type operation struct {
	s         *CartService
	ctx       context.Context
	span      trace.Span
	name      notify.Operation
	productID int

	locked  bool
	pending []func(context.Context)
}

func (s *CartService) begin(ctx context.Context, spanName string, name notify.Operation, productID int) *operation {
	ctx, span := s.tracer.Start(ctx, spanName,
		trace.WithAttributes(attribute.Int("product.id", productID)),
	)
	return &operation{s: s, ctx: ctx, span: span, name: name, productID: productID}
}

// lock acquires the cart writer. It is released by end.
func (o *operation) lock() error {
	if err := o.s.writer.Acquire(o.ctx, 1); err != nil {
		return fmt.Errorf("wait for cart writer: %w", err)
	}
	o.locked = true
	return nil
}

// end releases the writer, then runs queued deliveries.
func (o *operation) end() {
	if o.locked {
		o.s.writer.Release(1)
		o.locked = false
	}
	for _, deliver := range o.pending {
		deliver(o.ctx)
	}
	o.span.End()
}

func (o *operation) after(deliver func(context.Context)) {
	o.pending = append(o.pending, deliver)
}

// commit saves next, makes it the current cart and queues its publication.
// Nothing is published if the save fails.
func (o *operation) commit(next domain.Cart) error {
	if err := o.s.repo.Save(o.ctx, next); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	o.s.cart.Store(&next)

	if o.s.publisher == nil {
		return nil
	}
	published := next.Clone()
	o.after(func(ctx context.Context) {
		if err := o.s.publisher.PublishCartUpdated(ctx, published); err != nil {
			o.s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
				slog.String("error", err.Error()),
			)
		}
	})
	return nil
}

func (o *operation) succeeded(cart domain.Cart) (domain.Cart, error) {
	o.record(outcomeSuccess)
	amount := 0
	if item, ok := cart.Find(o.productID); ok {
		amount = item.Amount
	}
	o.s.logger.InfoContext(o.ctx, "cart updated",
		slog.String("operation", string(o.name)),
		slog.Int("product_id", o.productID),
		slog.Int("amount", amount),
		slog.Int("line_items", len(cart)),
	)
	return cart.Clone(), nil
}

func (o *operation) noop(reason string) (domain.Cart, error) {
	o.record(outcomeNoop)
	o.s.logger.DebugContext(o.ctx, reason,
		slog.String("operation", string(o.name)),
		slog.Int("product_id", o.productID),
	)
	return o.s.Cart(), nil
}

func (o *operation) outOfStock() (domain.Cart, error) {
	return o.reject(outcomeOutOfStock, notify.KindOutOfStock, apperrors.OutOfStock(MsgOutOfStock))
}

func (o *operation) notFound(message string) (domain.Cart, error) {
	return o.reject(outcomeNotFound, notify.KindNotFound, apperrors.NotFoundMessage(message))
}

// failed reports a lookup, storage or cancellation failure.
func (o *operation) failed(message string, cause error) (domain.Cart, error) {
	return o.reject(outcomeFailed, notify.KindTransportFailure,
		apperrors.Unavailable(CodeOperationFailed, message, cause))
}

func (o *operation) reject(outcome string, kind notify.Kind, err *apperrors.AppError) (domain.Cart, error) {
	o.record(outcome)
	o.span.RecordError(err)
	o.span.SetStatus(codes.Error, outcome)

	level := slog.LevelWarn
	if outcome == outcomeFailed {
		level = slog.LevelError
	}
	o.s.logger.Log(o.ctx, level, "cart operation failed",
		slog.String("operation", string(o.name)),
		slog.String("outcome", outcome),
		slog.Int("product_id", o.productID),
		slog.String("error", err.Error()),
	)

	note := notify.Notification{
		Operation: o.name,
		Kind:      kind,
		ProductID: o.productID,
		Message:   err.Message,
	}
	o.after(func(ctx context.Context) { o.s.notifier.Notify(ctx, note) })
	return o.s.Cart(), err
}

func (o *operation) record(outcome string) {
	o.span.SetAttributes(attribute.String("cart.outcome", outcome))
	cartOperations.WithLabelValues(string(o.name), outcome).Inc()
}
