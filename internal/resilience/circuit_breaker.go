package resilience

import (
	"log/slog"
	"sync"
	"time"
)

// CircuitBreakerState represents the state of the circuit breaker
type CircuitBreakerState int32

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold"` // consecutive failures before opening
	RecoveryTimeout  time.Duration `json:"recovery_timeout"`  // how long to stay open before probing
	SuccessThreshold int           `json:"success_threshold"` // probe successes needed to close
}

// DefaultCircuitBreakerConfig returns the defaults used for the Redis backend
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 2,
	}
}

// CircuitBreaker stops calling a dependency after repeated failures and
// lets a few probe calls through once the recovery timeout has passed.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	now    func() time.Time

	mu          sync.Mutex
	state       CircuitBreakerState
	failures    int
	successes   int
	nextAttempt time.Time
}

// NewCircuitBreaker creates a named circuit breaker. Zero config fields
// take their defaults.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	defaults := DefaultCircuitBreakerConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = defaults.RecoveryTimeout
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = defaults.SuccessThreshold
	}

	return &CircuitBreaker{
		name:   name,
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Call executes fn unless the breaker is open. An open breaker returns a
// *CircuitBreakerError without calling fn.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}

	err := fn()
	if err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return nil
	}
	if cb.now().Before(cb.nextAttempt) {
		return NewCircuitBreakerError(cb.name+" circuit breaker is open", cb.state)
	}
	cb.setState(StateHalfOpen)
	cb.successes = 0
	return nil
}

func (cb *CircuitBreaker) onFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.successes = 0

	if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
		cb.setState(StateOpen)
		cb.nextAttempt = cb.now().Add(cb.config.RecoveryTimeout)
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.setState(StateClosed)
		}
	}
}

// setState must be called with mu held
func (cb *CircuitBreaker) setState(state CircuitBreakerState) {
	if cb.state == state {
		return
	}
	slog.Warn("Circuit breaker state change", "name", cb.name, "from", cb.state.String(), "to", state.String())
	cb.state = state
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
	cb.failures = 0
	cb.successes = 0
}

// Stats returns a snapshot for health reporting
func (cb *CircuitBreaker) Stats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return map[string]interface{}{
		"name":     cb.name,
		"state":    cb.state.String(),
		"failures": cb.failures,
	}
}

// CircuitBreakerError represents an error from the circuit breaker
type CircuitBreakerError struct {
	Message string
	State   CircuitBreakerState
}

func (e *CircuitBreakerError) Error() string {
	return e.Message
}

// NewCircuitBreakerError creates a new circuit breaker error
func NewCircuitBreakerError(message string, state CircuitBreakerState) *CircuitBreakerError {
	return &CircuitBreakerError{
		Message: message,
		State:   state,
	}
}
