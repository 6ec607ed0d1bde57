package kafka

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// TopicPrefix namespaces every topic this module publishes to.
const TopicPrefix = "rocketshoes"

// Topic joins parts under TopicPrefix: Topic("cart", "updated") is
// "rocketshoes.cart.updated".
func Topic(parts ...string) string {
	return strings.Join(append([]string{TopicPrefix}, parts...), ".")
}

// Subject names the entity an event is about. Its ID is the message key, so
// events for one subject stay ordered within a partition.
type Subject struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Event is the envelope for every published message.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Subject       Subject         `json:"subject"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// Option customizes an event built by NewEvent.
type Option func(*Event)

// WithCorrelationID tags the event with the request that caused it. An empty
// id is ignored.
func WithCorrelationID(id string) Option {
	return func(e *Event) {
		if id != "" {
			e.CorrelationID = id
		}
	}
}

// NewEvent wraps data in an envelope with a fresh ID and the current time.
func NewEvent(eventType, source string, subject Subject, data any, opts ...Option) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	e := &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     source,
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// DecodeEvent parses an envelope from a message value.
func DecodeEvent(value []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(value, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &e, nil
}

// DecodeData decodes the payload into dst.
func (e *Event) DecodeData(dst any) error {
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// message builds the Kafka message for e. Headers repeat the routing fields
// so consumers can filter without decoding the value.
func (e *Event) message(topic string) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}

	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(e.Type)},
		{Key: "source", Value: []byte(e.Source)},
	}
	if e.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: "correlation_id", Value: []byte(e.CorrelationID)})
	}

	return kafka.Message{
		Topic:   topic,
		Key:     []byte(e.Subject.ID),
		Value:   value,
		Headers: headers,
	}, nil
}
