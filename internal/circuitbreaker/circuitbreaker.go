package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrCircuitOpen is returned by Execute while the circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the current state of the circuit breaker
type State int

const (
	StateClosed   State = iota // Normal operation, requests allowed
	StateOpen                  // Circuit is tripped, requests blocked
	StateHalfOpen              // Testing if service has recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// CircuitBreaker implements the circuit breaker pattern to prevent cascading failures
// by temporarily stopping operations when a threshold of failures is reached.
type CircuitBreaker struct {
	state     State         // Current state of the circuit breaker
	failures  int           // Count of consecutive failures
	threshold int           // Number of failures before opening circuit
	timeout   time.Duration // How long to wait before attempting recovery
	lastError error         // Most recent error that occurred
	mu        sync.Mutex    // Protects concurrent access to state
	openTime  time.Time     // When the circuit was opened
	now       func() time.Time
	logger    *logrus.Entry
}

// NewCircuitBreaker creates a new circuit breaker in the closed state.
//
// Parameters:
//   - threshold: Number of consecutive failures before opening the circuit
//   - timeout: Duration to wait before attempting recovery in half-open state
func NewCircuitBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}
	return &CircuitBreaker{
		state:     StateClosed,
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
		logger:    logrus.WithField("component", "circuitbreaker"),
	}
}

// Execute runs fn if the circuit breaker allows it and records the result.
// While the circuit is open it returns an error wrapping ErrCircuitOpen and the
// last recorded failure, without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.AllowRequest() {
		return fmt.Errorf("%w: %v", ErrCircuitOpen, cb.LastError())
	}

	err := fn()
	cb.RecordResult(err)
	return err
}

// AllowRequest checks if a request should be allowed through. An open circuit
// whose timeout has elapsed transitions to half-open and lets one request
// through; further requests are blocked until that one is recorded.
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openTime) < cb.timeout {
			return false
		}
		cb.state = StateHalfOpen
		cb.logger.Warn("Circuit breaker transitioned to half-open")
		return true
	case StateHalfOpen:
		return false
	default:
		return true
	}
}

// RecordResult records the result of a request and updates the circuit breaker state.
// Failed requests increment the failure counter and may open the circuit; a
// failure while half-open reopens it at once. Successful requests reset the
// failure counter and close the circuit.
func (cb *CircuitBreaker) RecordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastError = err
		if cb.state == StateHalfOpen || cb.failures >= cb.threshold {
			cb.state = StateOpen
			cb.openTime = cb.now()
			cb.logger.WithError(err).WithField("failures", cb.failures).Warn("Circuit breaker opened")
		}
		return
	}

	if cb.state != StateClosed {
		cb.logger.Info("Circuit breaker closed")
	}
	cb.failures = 0
	cb.state = StateClosed
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) LastError() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.lastError
}
