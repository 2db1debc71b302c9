package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	contractx "github.com/tanpawarit/order-desk-assistant/agent/contract"
	kafkax "github.com/tanpawarit/order-desk-assistant/pkg/kafka"
	qstashx "github.com/tanpawarit/order-desk-assistant/pkg/qstash"
)

type EventType string

const (
	EventOrderCancelled    EventType = "order.cancelled"
	EventOrderItemAdded    EventType = "order.item_added"
	EventFeedbackSubmitted EventType = "feedback.submitted"
)

// Event describes a committed change to an order.
type Event struct {
	ID      string         `json:"id"`
	Type    EventType      `json:"type"`
	OrderID int64          `json:"order_id"`
	Detail  map[string]any `json:"detail,omitempty"`
	At      time.Time      `json:"at"`
}

func NewEvent(typ EventType, orderID int64, at time.Time, detail map[string]any) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    typ,
		OrderID: orderID,
		Detail:  detail,
		At:      at.UTC(),
	}
}

func (e Event) Key() string {
	return strconv.FormatInt(e.OrderID, 10)
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

const (
	SinkNone   = "none"
	SinkKafka  = "kafka"
	SinkQStash = "qstash"
)

type Config struct {
	Sink string `default:"none"`
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Sink)) {
	case SinkNone, SinkKafka, SinkQStash:
		return nil
	default:
		return fmt.Errorf("%w: unsupported events sink %q", contractx.ErrValidation, c.Sink)
	}
}

func (c Config) Normalized() string {
	return strings.ToLower(strings.TrimSpace(c.Sink))
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

type kafkaSender interface {
	Send(ctx context.Context, key string, value []byte) error
}

// KafkaPublisher writes events as JSON keyed by order id, so one order's
// events share a partition.
type KafkaPublisher struct {
	producer kafkaSender
}

func NewKafkaPublisher(producer *kafkax.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.producer.Send(ctx, evt.Key(), payload)
}

type qstashSender interface {
	Publish(ctx context.Context, destination string, body []byte, headers map[string]string) (qstashx.PublishResponse, error)
}

type QStashPublisher struct {
	client      qstashSender
	destination string
}

func NewQStashPublisher(client *qstashx.Client, destination string) *QStashPublisher {
	return &QStashPublisher{client: client, destination: destination}
}

func (p *QStashPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = p.client.Publish(ctx, p.destination, payload, map[string]string{
		"Upstash-Deduplication-Id": evt.ID,
	})
	return err
}
