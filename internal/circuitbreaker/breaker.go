package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	Closed   State = iota // Upstream healthy, calls pass through.
	Open                  // Upstream failing, calls are rejected immediately.
	HalfOpen              // One probe call is allowed through.
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureFilter sets the predicate that decides whether an error returned
// by the wrapped call counts against the upstream. Errors it rejects are still
// returned to the caller but are treated as a healthy round trip.
func WithFailureFilter(fn func(error) bool) Option {
	return func(b *Breaker) { b.isFailure = fn }
}

// WithStateChange registers a callback invoked (outside the lock) on every
// state transition.
func WithStateChange(fn func(from, to State)) Option {
	return func(b *Breaker) { b.onChange = fn }
}

// Breaker guards calls to the hypermedia API. It opens after maxFailures
// consecutive upstream failures and lets a single probe through once
// resetTimeout has elapsed.
type Breaker struct {
	mu              sync.Mutex
	state           State
	failures        int
	probing         bool
	maxFailures     int
	resetTimeout    time.Duration
	lastFailureTime time.Time

	isFailure func(error) bool
	onChange  func(from, to State)
}

// New creates a Breaker that opens after maxFailures consecutive failures
// and attempts recovery after resetTimeout.
func New(maxFailures int, resetTimeout time.Duration, opts ...Option) *Breaker {
	b := &Breaker{
		state:        Closed,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		isFailure:    func(err error) bool { return err != nil },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute runs fn through the circuit breaker. If the circuit is open, or a
// half-open probe is already in flight, ErrCircuitOpen is returned without
// calling fn.
func (b *Breaker) Execute(fn func() error) error {
	probe, err := b.before()
	if err != nil {
		return err
	}

	err = fn()

	b.after(probe, err)
	return err
}

// before admits a call. probe is true for the one call allowed through
// while half-open.
func (b *Breaker) before() (probe bool, err error) {
	b.mu.Lock()
	from := b.state
	switch b.state {
	case Open:
		if time.Since(b.lastFailureTime) <= b.resetTimeout {
			b.mu.Unlock()
			return false, ErrCircuitOpen
		}
		b.state = HalfOpen
		b.probing = true
		probe = true
	case HalfOpen:
		if b.probing {
			b.mu.Unlock()
			return false, ErrCircuitOpen
		}
		b.probing = true
		probe = true
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return probe, nil
}

// after records the result of a call. Only the probe resolves the half-open
// state; calls admitted while closed that finish after the circuit opened
// are ignored.
func (b *Breaker) after(probe bool, err error) {
	failed := err != nil && b.isFailure(err)

	b.mu.Lock()
	from := b.state
	switch {
	case probe:
		b.probing = false
		if failed {
			b.failures++
			b.lastFailureTime = time.Now()
			b.state = Open
		} else {
			b.failures = 0
			b.state = Closed
		}
	case b.state != Closed:
	case failed:
		b.failures++
		b.lastFailureTime = time.Now()
		if b.failures >= b.maxFailures {
			b.state = Open
		}
	default:
		b.failures = 0
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.onChange != nil {
		b.onChange(from, to)
	}
}

// GetState returns the current state of the breaker.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
