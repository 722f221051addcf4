package circuit_breaker

import (
	"errors"
	"sync"
	"time"
)

type State uint8

const (
	Closed State = iota + 1
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

var ErrOpen = errors.New("circuit breaker is open")

type Config struct {
	// Window is the number of most recent calls the failure ratio is taken over.
	Window int
	// FailureRatio in (0, 1] opens the breaker once reached within Window.
	FailureRatio float64
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// RecoveryCalls successive successes in half-open close the breaker.
	RecoveryCalls int
}

func DefaultConfig() Config {
	return Config{
		Window:        20,
		FailureRatio:  0.5,
		Cooldown:      5 * time.Second,
		RecoveryCalls: 2,
	}
}

type CircuitBreaker interface {
	Call(fn func() error) error
	State() State
	Reset()
}

type circuitBreaker struct {
	mu  sync.Mutex
	cfg Config

	state    State
	openedAt time.Time
	// ring of call outcomes, true marks a failure
	outcomes  []bool
	pos       int
	successes int
}

func New(cfg Config) CircuitBreaker {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		cfg.FailureRatio = def.FailureRatio
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.RecoveryCalls <= 0 {
		cfg.RecoveryCalls = def.RecoveryCalls
	}
	return &circuitBreaker{
		cfg:      cfg,
		state:    Closed,
		outcomes: make([]bool, cfg.Window),
	}
}

// Call runs fn unless the breaker is open. Half-open lets calls through and
// falls back to open on the first failure.
func (cb *circuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == Open {
		if time.Since(cb.openedAt) < cb.cfg.Cooldown {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.state = HalfOpen
		cb.successes = 0
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.outcomes[cb.pos] = err != nil
	cb.pos = (cb.pos + 1) % len(cb.outcomes)

	if cb.state == HalfOpen {
		if err != nil {
			cb.trip()
			return err
		}
		cb.successes++
		if cb.successes >= cb.cfg.RecoveryCalls {
			cb.reset()
		}
		return nil
	}

	failures := 0
	for _, failed := range cb.outcomes {
		if failed {
			failures++
		}
	}
	if float64(failures)/float64(len(cb.outcomes)) >= cb.cfg.FailureRatio {
		cb.trip()
	}
	return err
}

func (cb *circuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == Open && time.Since(cb.openedAt) >= cb.cfg.Cooldown {
		return HalfOpen
	}
	return cb.state
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.reset()
}

func (cb *circuitBreaker) trip() {
	cb.state = Open
	cb.successes = 0
	cb.openedAt = time.Now()
}

func (cb *circuitBreaker) reset() {
	for i := range cb.outcomes {
		cb.outcomes[i] = false
	}
	cb.pos = 0
	cb.successes = 0
	cb.state = Closed
}
