package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sahelpay/momo/internal/domain/payment"
)

// PaymentEventStream carries payment lifecycle events from the API to the
// callback dispatcher.
const PaymentEventStream = "payments:events"

// StreamProducer publishes payment events. It implements the orchestrator's
// EventPublisher seam.
type StreamProducer struct {
	client *redis.Client
}

// NewStreamProducer creates a producer over the shared client.
func NewStreamProducer(client *redis.Client) *StreamProducer {
	return &StreamProducer{client: client}
}

// PublishPaymentEvent publishes a lifecycle event carrying the payment
// snapshot the dispatcher needs to deliver a callback.
func (p *StreamProducer) PublishPaymentEvent(ctx context.Context, eventType string, pay *payment.Payment) error {
	payload, err := json.Marshal(map[string]any{
		"payment_id": pay.ID.String(),
		"reference":  pay.Reference,
		"status":     string(pay.Status),
		"provider":   string(pay.Provider),
		"amount":     pay.Amount.Value,
		"currency":   pay.Amount.Currency,
	})
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: PaymentEventStream,
		Values: map[string]any{
			"payment_id":   pay.ID.String(),
			"event_type":   eventType,
			"callback_url": pay.CallbackURL,
			"payload":      string(payload),
			"timestamp":    time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish payment event: %w", err)
	}
	return nil
}

// StreamConsumer reads payment events through a consumer group so multiple
// dispatcher instances share the stream.
type StreamConsumer struct {
	client        *redis.Client
	stream        string
	group         string
	consumer      string
	batchSize     int64
	blockDuration time.Duration
}

// NewStreamConsumer creates a consumer bound to a group and consumer name.
func NewStreamConsumer(client *redis.Client, stream, group, consumer string, batchSize int64, blockDuration time.Duration) *StreamConsumer {
	return &StreamConsumer{
		client:        client,
		stream:        stream,
		group:         group,
		consumer:      consumer,
		batchSize:     batchSize,
		blockDuration: blockDuration,
	}
}

// CreateGroup creates the consumer group, creating the stream if needed.
func (c *StreamConsumer) CreateGroup(ctx context.Context) error {
	const busyGroupMsg = "BUSYGROUP"
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), busyGroupMsg) {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// Read blocks for up to the configured duration and returns pending entries.
func (c *StreamConsumer) Read(ctx context.Context) ([]redis.XStream, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    c.batchSize,
		Block:    c.blockDuration,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("read from stream: %w", err)
	}
	return streams, nil
}

// Ack acknowledges a processed message.
func (c *StreamConsumer) Ack(ctx context.Context, messageID string) error {
	if err := c.client.XAck(ctx, c.stream, c.group, messageID).Err(); err != nil {
		return fmt.Errorf("ack message: %w", err)
	}
	return nil
}
