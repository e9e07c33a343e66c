package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/adarshpatil06123/ecommerce-backend/pkg/events"
)

// DLQConsumer drains the dead-letter topic into the log so parked messages
// are visible without Kafka tooling. Replay stays a manual decision.
type DLQConsumer struct {
	reader MessageReader

	sleep func(time.Duration)
}

func NewDLQReader(brokers []string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: events.PaymentGroupID + "_dlq",
		Topic:   events.PaymentDLQTopic,
	})
}

func NewDLQConsumer(reader MessageReader) *DLQConsumer {
	return &DLQConsumer{
		reader: reader,
		sleep:  time.Sleep,
	}
}

func (c *DLQConsumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return
			}
			log.Error().Err(err).Msg("failed to fetch dead-letter message")
			c.sleep(fetchRetryDelay)
			continue
		}

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}

		log.Error().
			Str("original_topic", headers[HeaderOriginalTopic]).
			Str("original_partition", headers[HeaderOriginalPartition]).
			Str("original_offset", headers[HeaderOriginalOffset]).
			Str("exception_message", headers[HeaderExceptionMessage]).
			Str("key", string(msg.Key)).
			Str("value", string(msg.Value)).
			Msg("dead-letter message received")

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Error().Err(err).Int64("offset", msg.Offset).
				Msg("failed to commit dead-letter offset")
		}
	}
}
