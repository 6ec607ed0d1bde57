package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/internal/notify"
	"github.com/utafrali/rocketshoes/internal/repository"
	pkgkafka "github.com/utafrali/rocketshoes/pkg/kafka"
	"github.com/utafrali/rocketshoes/pkg/logger"
)

// Kafka topics for cart events.
const (
	TopicCartUpdated       = "rocketshoes.cart.updated"
	TopicCartNotifications = "rocketshoes.cart.notifications"
)

// Event subjects and source.
const (
	SubjectCart    = "cart"
	SubjectProduct = "product"
	SourceCartAPI  = "cart-api"
)

// Event types carried in the envelope.
const (
	EventTypeCartUpdated  = "cart.updated"
	EventTypeNotification = "cart.notification"
)

// CartUpdatedData is the payload of a cart.updated event.
type CartUpdatedData struct {
	Items     []CartItemData `json:"items"`
	ItemCount int            `json:"item_count"`
	Total     float64        `json:"total"`
}

// CartItemData is one line item within cart events.
type CartItemData struct {
	ProductID int     `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Amount    int     `json:"amount"`
}

// NotificationData is the payload of a cart.notification event.
type NotificationData struct {
	Operation string `json:"operation"`
	Kind      string `json:"kind"`
	ProductID int    `json:"product_id"`
	Message   string `json:"message"`
}

// Publisher sends an envelope to a topic. *pkgkafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes cart events. It serves as the cart service's
// CartPublisher and as a notify.Notifier.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a cart event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishCartUpdated publishes the full cart after a successful mutation.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart domain.Cart) error {
	items := make([]CartItemData, len(cart))
	for i, item := range cart {
		items[i] = CartItemData{
			ProductID: item.ID,
			Title:     item.Title,
			Price:     item.Price,
			Image:     item.Image,
			Amount:    item.Amount,
		}
	}

	data := CartUpdatedData{
		Items:     items,
		ItemCount: cart.ItemCount(),
		Total:     cart.Total(),
	}

	if err := p.publish(ctx, TopicCartUpdated, EventTypeCartUpdated, pkgkafka.Subject{Type: SubjectCart, ID: repository.SnapshotKey}, data); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.Int("item_count", data.ItemCount),
	)
	return nil
}

// Notify implements notify.Notifier. Publish failures are logged.
func (p *Producer) Notify(ctx context.Context, n notify.Notification) {
	data := NotificationData{
		Operation: string(n.Operation),
		Kind:      string(n.Kind),
		ProductID: n.ProductID,
		Message:   n.Message,
	}

	if err := p.publish(ctx, TopicCartNotifications, EventTypeNotification, pkgkafka.Subject{Type: SubjectProduct, ID: strconv.Itoa(n.ProductID)}, data); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish cart notification",
			slog.String("operation", data.Operation),
			slog.Int("product_id", n.ProductID),
			slog.String("error", err.Error()),
		)
	}
}

func (p *Producer) publish(ctx context.Context, topic, eventType string, subject pkgkafka.Subject, data any) error {
	event, err := pkgkafka.NewEvent(eventType, SourceCartAPI, subject, data,
		pkgkafka.WithCorrelationID(logger.CorrelationIDFromContext(ctx)))
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, topic, event)
}
