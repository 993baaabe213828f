// Package breaker wraps outbound calls to a shared backend with
// github.com/sony/gobreaker: a misbehaving backend degrades instead of
// stalling every pathway that shares it. The service registry uses it for
// the AI model (services.NewDefaultAIModel).
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned when a call is rejected because the breaker is open.
var ErrOpen = gobreaker.ErrOpenState

// Breaker wraps one named backend's calls with trip/half-open/reset
// behavior.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New builds a Breaker named name, tripping after 5 consecutive failures
// and probing again after 30s (defaults chosen for a per-agent backend
// assignment, the — tight enough that one bad endpoint doesn't stall an
// entire pathway for the full workflow timeout).
func New(name string) *Breaker {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st)}
}

// Call runs fn through the breaker, translating the breaker's own errors
// into ErrOpen so callers can distinguish "backend said no" from
// "breaker said no" with errors.Is.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrOpen
		}
		return "", err
	}
	return result.(string), nil
}
