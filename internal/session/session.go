// Package session holds the mutable state of one batch run: the publish
// circuit breaker, the budget tracker and access to the operator kill switch.
package session

import (
	"fmt"

	"equipflow/sei/internal/failure"
)

// KillSwitch reads the persisted operator switch.
type KillSwitch interface {
	PublishingEnabled() (bool, error)
}

// Session is created once per batch and passed to every pipeline stage.
type Session struct {
	Breaker *CircuitBreaker
	Budget  *Budget
	kill    KillSwitch
}

// New creates a session with a closed breaker and an empty budget.
func New(breakerThreshold int, limits map[string]int, kill KillSwitch) *Session {
	return &Session{
		Breaker: NewCircuitBreaker(breakerThreshold),
		Budget:  NewBudget(limits),
		kill:    kill,
	}
}

// CheckKillSwitch returns failure.ErrKillSwitch when publishing is disabled.
// A session without a switch is never stopped. A read error is treated as
// disabled so mutating calls are not made blind.
func (s *Session) CheckKillSwitch() error {
	if s.kill == nil {
		return nil
	}
	enabled, err := s.kill.PublishingEnabled()
	if err != nil {
		return fmt.Errorf("%w (%v)", failure.ErrKillSwitch, err)
	}
	if !enabled {
		return failure.ErrKillSwitch
	}
	return nil
}

// CheckPublish runs the kill switch and breaker checks that precede any
// mutating network call.
func (s *Session) CheckPublish() error {
	if err := s.CheckKillSwitch(); err != nil {
		return err
	}
	return s.Breaker.Allow()
}
