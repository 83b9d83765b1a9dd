// Package resilience guards remote dependencies with a circuit breaker.
//
// A [Breaker] counts consecutive failures of the calls it runs. Once the
// limit is reached it opens and rejects calls with [ErrCircuitOpen] until the
// cool-down elapses; then a single probe call decides whether it closes again.
// [GuardSource] applies a breaker to a phoneme source so that a failing LLM
// endpoint hands its words to the next source of a chain instead of stalling
// every render.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [Breaker.Do] while the breaker rejects calls.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// State is the operating mode of a [Breaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects calls until the reset timeout elapses.
	StateOpen

	// StateHalfOpen lets one probe call through.
	StateHalfOpen
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	defaultMaxFailures  = 5
	defaultResetTimeout = 30 * time.Second
)

// Option configures a [Breaker].
type Option func(*Breaker)

// WithMaxFailures sets how many consecutive failures open the breaker.
// Values below 1 keep the default of 5.
func WithMaxFailures(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.maxFailures = n
		}
	}
}

// WithResetTimeout sets how long the breaker stays open before probing.
// Non-positive values keep the default of 30s.
func WithResetTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.resetTimeout = d
		}
	}
}

// WithFailureFunc replaces the classifier deciding which errors count as
// failures. The default counts every non-nil error except context
// cancellation.
func WithFailureFunc(f func(error) bool) Option {
	return func(b *Breaker) {
		if f != nil {
			b.isFailure = f
		}
	}
}

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// Breaker is a three-state circuit breaker.
type Breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	isFailure    func(error) bool
	now          func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker returns a closed breaker. name labels its log lines.
func NewBreaker(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:         name,
		maxFailures:  defaultMaxFailures,
		resetTimeout: defaultResetTimeout,
		isFailure:    countsAsFailure,
		now:          time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func countsAsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// Do runs fn unless the breaker is open. The error of fn is returned as is.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	probe, err := b.acquire()
	if err != nil {
		return err
	}
	err = fn(ctx)
	b.release(probe, err)
	return err
}

func (b *Breaker) acquire() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.resetTimeout {
			return false, ErrCircuitOpen
		}
		b.state = StateHalfOpen
		slog.Info("circuit breaker half-open", "name", b.name)
		fallthrough
	case StateHalfOpen:
		if b.probing {
			return false, ErrCircuitOpen
		}
		b.probing = true
		return true, nil
	}
	return false, nil
}

func (b *Breaker) release(probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if probe {
		b.probing = false
	}
	if !b.isFailure(err) {
		// Calls started before the breaker opened cannot close it.
		if probe {
			b.state = StateClosed
			slog.Info("circuit breaker closed", "name", b.name)
		}
		if b.state == StateClosed {
			b.failures = 0
		}
		return
	}

	b.failures++
	if probe || b.failures >= b.maxFailures {
		if b.state != StateOpen {
			slog.Warn("circuit breaker opened",
				"name", b.name,
				"consecutive_failures", b.failures,
				"err", err,
			)
		}
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// State reports the current state. An open breaker whose reset timeout has
// elapsed reports [StateHalfOpen]; the transition itself happens on the next
// call.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.resetTimeout {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.probing = false
}
