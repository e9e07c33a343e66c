// Package consumer reads OrderPlaced events and drives payment settlement.
// Delivery is at-least-once: offsets are committed only after the handler
// returns, and the service layer absorbs replays via the one-payment-per-
// order constraint.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/adarshpatil06123/ecommerce-backend/pkg/events"
)

const (
	HeaderOriginalTopic     = "x-original-topic"
	HeaderOriginalPartition = "x-original-partition"
	HeaderOriginalOffset    = "x-original-offset"
	HeaderExceptionMessage  = "x-exception-message"
)

const (
	maxAttempts    = 3
	initialBackoff = 500 * time.Millisecond

	// fetchRetryDelay keeps the loop from spinning hot while the broker is
	// unreachable.
	fetchRetryDelay = time.Second
)

// PaymentProcessor is the slice of the payment service the consumer needs.
type PaymentProcessor interface {
	ProcessOrderPayment(ctx context.Context, ev events.OrderPlaced) error
}

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DLQWriter is satisfied by *kafka.Writer.
type DLQWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OrderConsumer struct {
	reader    MessageReader
	dlq       DLQWriter
	processor PaymentProcessor

	// sleep is swapped out in tests so retries do not wait.
	sleep func(time.Duration)
}

// NewReader builds the group reader for the order topic.
func NewReader(brokers []string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        events.PaymentGroupID,
		Topic:          events.OrderCreatedTopic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
}

func NewOrderConsumer(reader MessageReader, dlq DLQWriter, processor PaymentProcessor) *OrderConsumer {
	return &OrderConsumer{
		reader:    reader,
		dlq:       dlq,
		processor: processor,
		sleep:     time.Sleep,
	}
}

// Run fetches and handles messages until the context is cancelled. Every
// fetched message is committed: either the handler eventually succeeded or
// the message was parked on the dead-letter topic.
func (c *OrderConsumer) Run(ctx context.Context) {
	log.Info().Str("topic", events.OrderCreatedTopic).Str("group", events.PaymentGroupID).
		Msg("payment consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return
			}
			log.Error().Err(err).Msg("failed to fetch message")
			c.sleep(fetchRetryDelay)
			continue
		}

		if err := c.handleWithRetry(ctx, msg); err != nil {
			if dlqErr := c.sendToDLQ(ctx, msg, err); dlqErr != nil {
				// Not parked and not committed; the message is re-fetched
				// after a rebalance or restart.
				continue
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Error().Err(err).Int64("offset", msg.Offset).
				Msg("failed to commit offset")
		}
	}
}

// handleWithRetry retries transient handler failures with exponential
// backoff before giving up.
func (c *OrderConsumer) handleWithRetry(ctx context.Context, msg kafka.Message) error {
	var ev events.OrderPlaced
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		// A malformed payload never gets better; skip straight to the DLQ.
		return fmt.Errorf("unmarshal OrderPlaced: %w", err)
	}

	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = c.processor.ProcessOrderPayment(ctx, ev)
		if lastErr == nil {
			return nil
		}

		log.Warn().Err(lastErr).Int64("order_id", ev.OrderID).
			Int("attempt", attempt).Msg("payment processing failed")

		if attempt < maxAttempts {
			c.sleep(backoff)
			backoff *= 2
		}
	}
	return fmt.Errorf("exhausted %d attempts: %w", maxAttempts, lastErr)
}

// sendToDLQ parks the poisoned message with enough headers to find where it
// came from.
func (c *OrderConsumer) sendToDLQ(ctx context.Context, msg kafka.Message, cause error) error {
	dlqMsg := kafka.Message{
		Topic: events.PaymentDLQTopic,
		Key:   msg.Key,
		Value: msg.Value,
		Headers: []kafka.Header{
			{Key: HeaderOriginalTopic, Value: []byte(msg.Topic)},
			{Key: HeaderOriginalPartition, Value: []byte(strconv.Itoa(msg.Partition))},
			{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
			{Key: HeaderExceptionMessage, Value: []byte(cause.Error())},
		},
	}

	if err := c.dlq.WriteMessages(ctx, dlqMsg); err != nil {
		log.Error().Err(err).Str("key", string(msg.Key)).Int64("offset", msg.Offset).
			Msg("failed to write to dead-letter topic")
		return err
	}

	log.Error().Err(cause).Str("key", string(msg.Key)).Int64("offset", msg.Offset).
		Msg("message parked on dead-letter topic")
	return nil
}
