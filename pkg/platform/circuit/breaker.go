// Package circuit implements a small circuit breaker for calls to the
// identity provider.
//
// Closed: calls flow and consecutive failures are counted.
// Open: calls are refused until the cooldown elapses.
// Half-open: trial calls flow; enough consecutive successes close the
// circuit and any failure opens it again.
package circuit

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by callers that refuse work while the circuit is open.
var ErrOpen = errors.New("circuit open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Change reports a transition caused by a recorded outcome.
type Change struct {
	Opened bool
	Closed bool
}

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 2
	defaultCooldown         = 30 * time.Second
)

type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int
	cooldown         time.Duration
	now              func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
}

type Option func(*Breaker)

func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithCooldown sets how long the circuit stays open before probing.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		b.cooldown = d
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
		cooldown:         defaultCooldown,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsOpen is true while calls are refused or probing.
func (b *Breaker) IsOpen() bool {
	return b.State() != StateClosed
}

// Allow reports whether a call may proceed. An open circuit turns
// half-open once the cooldown has elapsed.
func (b *Breaker) Allow() bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = StateHalfOpen
		b.successes = 0
		return true
	default:
		return true
	}
}

// RecordFailure counts a failed call. It returns true when callers should
// treat the upstream as unavailable.
func (b *Breaker) RecordFailure() (bool, Change) {
	if b == nil {
		return false, Change{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes = 0
	if b.state != StateClosed {
		if b.state == StateHalfOpen {
			b.state = StateOpen
			b.openedAt = b.now()
		}
		return true, Change{}
	}
	b.failures++
	if b.failures < b.failureThreshold {
		return false, Change{}
	}
	b.state = StateOpen
	b.openedAt = b.now()
	b.failures = 0
	return true, Change{Opened: true}
}

// RecordSuccess counts a successful call. It returns true when the circuit
// is closed afterwards.
func (b *Breaker) RecordSuccess() (bool, Change) {
	if b == nil {
		return true, Change{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateClosed {
		b.failures = 0
		return true, Change{}
	}
	b.successes++
	if b.successes < b.successThreshold {
		return false, Change{}
	}
	b.state = StateClosed
	b.successes = 0
	b.failures = 0
	return true, Change{Closed: true}
}

// Reset closes the circuit and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}

// Record feeds the outcome of one call. failed marks the upstream as
// unavailable; other errors should be recorded as successes.
func (b *Breaker) Record(failed bool) Change {
	if failed {
		_, change := b.RecordFailure()
		return change
	}
	_, change := b.RecordSuccess()
	return change
}
