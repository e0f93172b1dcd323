// Package resilience guards provider calls with per-provider circuit breakers.
// Calls are never retried; an open breaker fails fast so a provider that is
// down does not cost a full timeout on every remaining record.
package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed is the normal operating state.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects calls until ResetTimeout has elapsed.
	CircuitOpen
	// CircuitHalfOpen lets a single probe call through.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when a call is rejected because the circuit is open.
var ErrCircuitOpen = eris.New("circuit open")

// BreakerConfig controls circuit breaker behavior.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// circuit. Zero disables the breaker.
	FailureThreshold int
	// ResetTimeout is how long the circuit stays open before a probe.
	ResetTimeout time.Duration
	// OnStateChange is called on every transition.
	OnStateChange func(name string, from, to CircuitState)
}

// Breaker tracks consecutive failures for one provider operation.
type Breaker struct {
	name string
	cfg  BreakerConfig

	mu                  sync.Mutex
	state               CircuitState
	consecutiveFailures int
	openedAt            time.Time

	nowFunc func() time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = time.Minute
	}
	return &Breaker{
		name:    name,
		cfg:     cfg,
		state:   CircuitClosed,
		nowFunc: time.Now,
	}
}

// Allow reports whether a call may proceed. It returns ErrCircuitOpen while
// the circuit is open and moves an expired open circuit to half-open.
func (b *Breaker) Allow() error {
	if b.cfg.FailureThreshold <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitOpen {
		if b.nowFunc().Sub(b.openedAt) < b.cfg.ResetTimeout {
			return ErrCircuitOpen
		}
		b.transition(CircuitHalfOpen)
	}
	return nil
}

// Record feeds the outcome of a call into the breaker.
func (b *Breaker) Record(err error) {
	if b.cfg.FailureThreshold <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.consecutiveFailures = 0
		if b.state != CircuitClosed {
			b.transition(CircuitClosed)
		}
		return
	}

	b.consecutiveFailures++
	switch b.state {
	case CircuitHalfOpen:
		b.open()
	case CircuitClosed:
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.open()
		}
	}
}

// State returns the current state.
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) open() {
	b.openedAt = b.nowFunc()
	b.transition(CircuitOpen)
}

func (b *Breaker) transition(to CircuitState) {
	from := b.state
	b.state = to
	if b.cfg.OnStateChange != nil && from != to {
		b.cfg.OnStateChange(b.name, from, to)
	}
}

// Breakers is a registry of named breakers sharing one config.
type Breakers struct {
	cfg BreakerConfig

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewBreakers creates an empty registry.
func NewBreakers(cfg BreakerConfig) *Breakers {
	return &Breakers{cfg: cfg, breakers: make(map[string]*Breaker)}
}

// Get returns the breaker for name, creating it on first use.
func (r *Breakers) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.breakers[name]
	if !ok {
		b = NewBreaker(name, r.cfg)
		r.breakers[name] = b
	}
	return b
}

// States returns a snapshot of every breaker's state.
func (r *Breakers) States() map[string]CircuitState {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]CircuitState, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.State()
	}
	return out
}
