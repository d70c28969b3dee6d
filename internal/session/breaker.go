package session

import (
	"fmt"

	"equipflow/sei/internal/failure"
)

// CircuitBreaker counts consecutive publish failures. Once the count reaches
// the threshold it stays open until Reset.
type CircuitBreaker struct {
	threshold int
	failures  int
	open      bool
}

// NewCircuitBreaker returns a closed breaker. A threshold below 1 is treated as 1.
func NewCircuitBreaker(threshold int) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}
	return &CircuitBreaker{threshold: threshold}
}

// Allow returns failure.ErrCircuitOpen when the breaker is open.
func (b *CircuitBreaker) Allow() error {
	if b.open {
		return fmt.Errorf("%w after %d consecutive failures", failure.ErrCircuitOpen, b.failures)
	}
	return nil
}

// RecordSuccess resets the consecutive failure count.
func (b *CircuitBreaker) RecordSuccess() {
	b.failures = 0
}

// RecordFailure counts a failure and opens the breaker at the threshold.
// Returns true when this failure opened it.
func (b *CircuitBreaker) RecordFailure() bool {
	b.failures++
	if !b.open && b.failures >= b.threshold {
		b.open = true
		return true
	}
	return false
}

// Reset closes the breaker and clears the failure count.
func (b *CircuitBreaker) Reset() {
	b.failures = 0
	b.open = false
}

// Failures returns the current consecutive failure count.
func (b *CircuitBreaker) Failures() int { return b.failures }

// Open reports whether the breaker has tripped.
func (b *CircuitBreaker) Open() bool { return b.open }
