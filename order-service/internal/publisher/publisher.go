// Package publisher wires the shared outbox relay to the order store and
// adds the PENDING-order sweep.
package publisher

import (
	"context"
	"time"

	"github.com/adarshpatil06123/ecommerce-backend/order-service/internal/repository"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/outbox"
	"github.com/rs/zerolog/log"
)

// NewOrderPoller returns the relay for the order outbox. Its recovery
// ticker reconciles orders stranded in PENDING by a failed stock
// reservation: after staleAfter they are cancelled, since no stock was
// ever reserved for them.
func NewOrderPoller(repo repository.OrderRepository, writer outbox.MessageWriter, staleAfter time.Duration) *outbox.Poller {
	sweep := func(ctx context.Context) {
		n, err := repo.CancelStalePending(ctx, staleAfter)
		if err != nil {
			log.Error().Err(err).Msg("stale PENDING sweep failed")
			return
		}
		if n > 0 {
			log.Warn().Int64("count", n).Msg("cancelled stale PENDING orders")
		}
	}
	return outbox.NewPoller(repo, writer, sweep)
}
