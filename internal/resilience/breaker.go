// Package resilience guards calls to upstream services (geocoder, tile
// server) with a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrOpen is returned without calling the upstream while the circuit is open.
var ErrOpen = eris.New("resilience: upstream circuit open")

var errPanicked = eris.New("resilience: upstream call panicked")

// State is the breaker position.
type State int

// Breaker states.
const (
	Closed State = iota
	Open
	HalfOpen
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

// Breaker opens after Threshold consecutive failures. Once Cooldown has
// passed a single probe call is let through; a success closes the
// circuit, a failure reopens it and a neutral outcome leaves it half-open.
// A nil *Breaker passes every call through.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
	now      func() time.Time
}

// NewBreaker creates a closed breaker for the named upstream.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Do runs fn unless the circuit is open.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := b.acquire(); err != nil {
		return err
	}
	defer b.finish(&err)
	err = fn(ctx)
	return err
}

// Call is Do for functions that return a value.
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (v T, err error) {
	if err := b.acquire(); err != nil {
		return v, err
	}
	defer b.finish(&err)
	v, err = fn(ctx)
	return v, err
}

// finish records the outcome of a call. A panicking call counts as a
// failure so a half-open probe never stays in flight.
func (b *Breaker) finish(err *error) {
	if r := recover(); r != nil {
		b.record(errPanicked)
		panic(r)
	}
	b.record(*err)
}

// State reports the current position. An open breaker whose cooldown has
// elapsed reports HalfOpen.
func (b *Breaker) State() State {
	if b == nil {
		return Closed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cooldown {
		return HalfOpen
	}
	return b.state
}

func (b *Breaker) acquire() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return ErrOpen
		}
		b.moveTo(HalfOpen)
		b.probing = true
		return nil
	case HalfOpen:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	switch outcome(err) {
	case outcomeSuccess:
		b.failures = 0
		if b.state != Closed {
			b.moveTo(Closed)
		}
	case outcomeNeutral:
		// Leaves the state and count as they were. A half-open breaker
		// lets the next caller probe.
	case outcomeFailure:
		b.failures++
		if b.state == HalfOpen || b.failures >= b.threshold {
			b.openedAt = b.now()
			if b.state != Open {
				b.moveTo(Open)
			}
		}
	}
}

func (b *Breaker) moveTo(to State) {
	zap.L().Info("resilience: circuit state change",
		zap.String("upstream", b.name),
		zap.Stringer("from", b.state),
		zap.Stringer("to", to),
		zap.Int("failures", b.failures),
	)
	b.state = to
}

type callOutcome int

const (
	outcomeSuccess callOutcome = iota
	outcomeNeutral
	outcomeFailure
)

// outcome classifies a call result. Callers giving up and upstream answers
// that retrying cannot fix are neutral: they neither trip nor heal the
// circuit.
func outcome(err error) callOutcome {
	if err == nil {
		return outcomeSuccess
	}
	if errors.Is(err, context.Canceled) {
		return outcomeNeutral
	}
	var se *StatusError
	if errors.As(err, &se) && !IsTransientStatus(se.Code) {
		return outcomeNeutral
	}
	return outcomeFailure
}
