// Package outbox implements the relay half of the transactional outbox
// pattern: services write events into an outbox table inside the same
// transaction as the state change, and a Poller publishes them to Kafka
// afterwards. Publishing is at-least-once; a crash between WriteMessages
// and MarkEventPublished re-sends the event on the next tick.
package outbox

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Event is one row of a service's outbox table.
type Event struct {
	ID        int64
	Topic     string
	Key       string
	Payload   []byte
	Published bool
	CreatedAt time.Time
}

// Repository is the slice of a service repository the poller needs.
type Repository interface {
	GetUnpublishedEvents(ctx context.Context, limit int) ([]*Event, error)
	MarkEventPublished(ctx context.Context, id int64) error
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Poller struct {
	repo         Repository
	writer       MessageWriter
	batchSize    int
	eventTick    time.Duration
	recoveryTick time.Duration

	// recovery, when set, runs on its own slower ticker. Services use it
	// for housekeeping that belongs next to the relay loop, e.g. sweeping
	// orders stuck in PENDING.
	recovery func(ctx context.Context)
}

// NewWriter builds a kafka writer suitable for outbox publishing. Topic is
// left unset; each outbox row carries its own. The completion callback is
// the only place the physical position (partition+offset) of a publish is
// visible, so it is logged there.
func NewWriter(brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafka.Message, err error) {
			for _, m := range messages {
				if err != nil {
					log.Error().Err(err).Str("topic", m.Topic).Str("key", string(m.Key)).
						Msg("outbox publish failed")
					continue
				}
				log.Info().Str("topic", m.Topic).Str("key", string(m.Key)).
					Int("partition", m.Partition).Int64("offset", m.Offset).
					Msg("outbox event published")
			}
		},
	}
}

func NewPoller(repo Repository, writer MessageWriter, recovery func(ctx context.Context)) *Poller {
	return &Poller{
		repo:         repo,
		writer:       writer,
		batchSize:    100,
		eventTick:    time.Second,
		recoveryTick: time.Second * 30,
		recovery:     recovery,
	}
}

func (p *Poller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			if p.recovery != nil {
				p.recovery(ctx)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) processUnpublishedEvents(ctx context.Context) {
	evs, err := p.repo.GetUnpublishedEvents(ctx, p.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch outbox events")
		return
	}

	for _, ev := range evs {
		if err := p.writer.WriteMessages(ctx, kafka.Message{
			Topic: ev.Topic,
			Key:   []byte(ev.Key),
			Value: ev.Payload,
		}); err != nil {
			// Leave the row unpublished; the next tick retries it.
			log.Error().Err(err).Int64("event_id", ev.ID).Str("topic", ev.Topic).
				Msg("failed to publish outbox event")
			continue
		}

		if err := p.repo.MarkEventPublished(ctx, ev.ID); err != nil {
			log.Error().Err(err).Int64("event_id", ev.ID).
				Msg("failed to mark outbox event as published")
		}
	}
}
