package transmit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hazyhaar/omnitrack/event"
)

// BreakerState represents a circuit breaker's state.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

// ErrCircuitOpen is returned by CircuitBreaker.Send when the wrapped
// transmitter's breaker is open.
var ErrCircuitOpen = errors.New("transmit: circuit breaker open")

// CircuitBreaker wraps a Transmitter, short-circuiting calls after a
// run of failures so a persistently failing endpoint isn't hammered on
// every flush. It is a pure efficiency layer: it never changes the
// queue's required fallback-then-discard semantics, since a rejected
// Send is just another failure the queue's transmitter selection moves
// past.
type CircuitBreaker struct {
	inner Transmitter

	mu           sync.Mutex
	state        BreakerState
	failures     int
	successes    int
	threshold    int
	resetTimeout time.Duration
	halfOpenMax  int
	lastFailure  time.Time
	now          func() time.Time
}

// BreakerOption configures a CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

func WithBreakerThreshold(n int) BreakerOption {
	return func(cb *CircuitBreaker) { cb.threshold = n }
}

func WithBreakerResetTimeout(d time.Duration) BreakerOption {
	return func(cb *CircuitBreaker) { cb.resetTimeout = d }
}

func WithBreakerHalfOpenMax(n int) BreakerOption {
	return func(cb *CircuitBreaker) { cb.halfOpenMax = n }
}

func WithBreakerClock(fn func() time.Time) BreakerOption {
	return func(cb *CircuitBreaker) { cb.now = fn }
}

// NewCircuitBreaker wraps inner with breaker defaults: 5 failures to
// open, 30s reset timeout, 2 successes in half-open to close.
func NewCircuitBreaker(inner Transmitter, opts ...BreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		inner:        inner,
		state:        BreakerClosed,
		threshold:    5,
		resetTimeout: 30 * time.Second,
		halfOpenMax:  2,
		now:          time.Now,
	}
	for _, o := range opts {
		o(cb)
	}
	return cb
}

func (cb *CircuitBreaker) IsAvailable() bool { return cb.inner.IsAvailable() }

func (cb *CircuitBreaker) Priority() int { return cb.inner.Priority() }

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeTransition()
	return cb.state
}

func (cb *CircuitBreaker) Send(ctx context.Context, batch event.Batch) error {
	cb.mu.Lock()
	cb.maybeTransition()
	if cb.state == BreakerOpen {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	err := cb.inner.Send(ctx, batch)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailureLocked()
	} else {
		cb.recordSuccessLocked()
	}
	return err
}

func (cb *CircuitBreaker) recordSuccessLocked() {
	switch cb.state {
	case BreakerHalfOpen:
		cb.successes++
		if cb.successes >= cb.halfOpenMax {
			cb.state = BreakerClosed
			cb.failures = 0
			cb.successes = 0
		}
	case BreakerClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) recordFailureLocked() {
	cb.lastFailure = cb.now()
	switch cb.state {
	case BreakerClosed:
		cb.failures++
		if cb.failures >= cb.threshold {
			cb.state = BreakerOpen
		}
	case BreakerHalfOpen:
		cb.state = BreakerOpen
		cb.successes = 0
	}
}

func (cb *CircuitBreaker) maybeTransition() {
	if cb.state == BreakerOpen && cb.now().Sub(cb.lastFailure) >= cb.resetTimeout {
		cb.state = BreakerHalfOpen
		cb.successes = 0
	}
}
