package redis

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the circuit breaker state.
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // publishes pass through
	BreakerOpen                         // publishes dropped until the cool-down ends
	BreakerHalfOpen                     // one probe publish allowed
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker stops a run from stalling on every bar when Redis is gone.
// After maxFailures consecutive failures it rejects calls for coolDown, then
// lets one probe through; a successful probe closes it again.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       BreakerState
	failures    int
	maxFailures int
	coolDown    time.Duration
	openedAt    time.Time
	now         func() time.Time

	OnStateChange func(from, to BreakerState)
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(maxFailures int, coolDown time.Duration) *CircuitBreaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &CircuitBreaker{maxFailures: maxFailures, coolDown: coolDown, now: time.Now}
}

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.state == BreakerOpen {
		if cb.now().Sub(cb.openedAt) < cb.coolDown {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.transition(BreakerHalfOpen)
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err == nil {
		if cb.state != BreakerClosed {
			cb.transition(BreakerClosed)
		}
		cb.failures = 0
		return nil
	}
	cb.failures++
	if cb.state == BreakerHalfOpen || cb.failures >= cb.maxFailures {
		cb.openedAt = cb.now()
		cb.transition(BreakerOpen)
	}
	return err
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) transition(to BreakerState) {
	from := cb.state
	cb.state = to
	if to == BreakerClosed {
		cb.failures = 0
	}
	if cb.OnStateChange != nil && from != to {
		cb.OnStateChange(from, to)
	}
}
