// Package circuitbreaker wraps sony/gobreaker for the synchronous upstream
// calls. A breaker opens after enough consecutive failures and refuses
// calls until the cooldown elapses, so a dead upstream fails fast instead
// of eating the caller's timeout on every request.
package circuitbreaker

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

// New builds a breaker for one upstream.
func New[T any](name string, maxFailures uint32, cooldown time.Duration) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:    name,
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

// Refused reports whether err means the breaker rejected the call without
// attempting it.
func Refused(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
