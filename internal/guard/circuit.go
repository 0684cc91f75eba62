package guard

import (
	"fmt"
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreaker stops calls to a failing downstream (one circuit per key,
// e.g. per Kafka topic) until resetTimeout has passed, then lets a single
// probe through.
type CircuitBreaker struct {
	mu            sync.Mutex
	circuits      map[string]*circuit
	failThreshold int
	resetTimeout  time.Duration
	now           func() time.Time
}

type circuit struct {
	state       CircuitState
	failures    int
	probing     bool
	lastFailure time.Time
}

// NewCircuitBreaker creates a circuit breaker with configurable thresholds.
func NewCircuitBreaker(failThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		circuits:      make(map[string]*circuit),
		failThreshold: failThreshold,
		resetTimeout:  resetTimeout,
		now:           time.Now,
	}
}

func (cb *CircuitBreaker) get(key string) *circuit {
	c, ok := cb.circuits[key]
	if !ok {
		c = &circuit{}
		cb.circuits[key] = c
	}
	return c
}

// Check reports whether a call for key may proceed.
func (cb *CircuitBreaker) Check(key string) Result {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(key)
	switch c.state {
	case CircuitOpen:
		wait := cb.resetTimeout - cb.now().Sub(c.lastFailure)
		if wait > 0 {
			return Result{
				Reason: fmt.Sprintf("circuit open for %s, resets in %s", key, wait.Round(time.Millisecond)),
				Guard:  "circuit_breaker",
			}
		}
		c.state = CircuitHalfOpen
		c.probing = true
		return allow()
	case CircuitHalfOpen:
		if c.probing {
			return Result{Reason: "circuit half-open, probe in flight", Guard: "circuit_breaker"}
		}
		c.probing = true
		return allow()
	default:
		return allow()
	}
}

// RecordSuccess closes the circuit for key.
func (cb *CircuitBreaker) RecordSuccess(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	c := cb.get(key)
	c.state = CircuitClosed
	c.failures = 0
	c.probing = false
}

// RecordFailure counts a failure and opens the circuit at the threshold. A
// failed probe reopens it immediately.
func (cb *CircuitBreaker) RecordFailure(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	c := cb.get(key)
	c.failures++
	c.lastFailure = cb.now()
	c.probing = false
	if c.state == CircuitHalfOpen || c.failures >= cb.failThreshold {
		c.state = CircuitOpen
	}
}

// State returns the current state for key.
func (cb *CircuitBreaker) State(key string) CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if c, ok := cb.circuits[key]; ok {
		return c.state
	}
	return CircuitClosed
}
