package remote

import (
	"context"
	"sync"
	"time"

	"github.com/jmhooper/vikunja-mcp/internal/errors"
	"github.com/jmhooper/vikunja-mcp/internal/task"
)

// BreakerState is the circuit breaker's current position.
type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half-open"
)

// Breaker wraps a Client with a circuit breaker. Consecutive failures at
// or above the threshold open the circuit; while open, calls fail fast
// with a REMOTE_ERROR of kind "circuit_open" instead of hitting the wire.
// After the cool-down one probe call is allowed through (half-open): on
// success the circuit closes, on failure it reopens for another cool-down.
//
// Only REMOTE_ERROR results count as failures. Safe for concurrent use.
type Breaker struct {
	inner     Client
	threshold int
	cooldown  time.Duration

	// now is swappable in tests.
	now func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker wraps inner with a breaker that opens after threshold
// consecutive failures and stays open for cooldown.
func NewBreaker(inner Client, threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		inner:     inner,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		state:     StateClosed,
	}
}

// State reports the breaker's current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Query delegates to the wrapped client under breaker control.
func (b *Breaker) Query(ctx context.Context, remoteFilter string) ([]task.Task, error) {
	return b.call(func() ([]task.Task, error) {
		return b.inner.Query(ctx, remoteFilter)
	})
}

// FetchAll delegates to the wrapped client under breaker control.
func (b *Breaker) FetchAll(ctx context.Context) ([]task.Task, error) {
	return b.call(func() ([]task.Task, error) {
		return b.inner.FetchAll(ctx)
	})
}

func (b *Breaker) call(fn func() ([]task.Task, error)) ([]task.Task, error) {
	if err := b.admit(); err != nil {
		return nil, err
	}

	tasks, err := fn()
	b.record(err)
	return tasks, err
}

// admit decides whether a call may proceed, transitioning Open to
// HalfOpen when the cool-down has elapsed. At most one probe is in flight
// while half-open; concurrent calls fail fast until it settles.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return errors.NewRemote(errors.RemoteKindOpen,
				"remote API circuit is open; retry after cool-down")
		}
		b.state = StateHalfOpen
		b.probing = true
		return nil
	default: // StateHalfOpen
		if b.probing {
			return errors.NewRemote(errors.RemoteKindOpen,
				"remote API circuit is half-open; probe in flight")
		}
		b.probing = true
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := errors.Is(err, errors.ErrRemote)

	if b.state == StateHalfOpen {
		b.probing = false
		if failed {
			b.state = StateOpen
			b.openedAt = b.now()
			return
		}
		b.state = StateClosed
		b.failures = 0
		return
	}

	if !failed {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.threshold {
		b.state = StateOpen
		b.openedAt = b.now()
	}
}
