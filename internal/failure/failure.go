// Package failure defines the error kinds shared by the pipeline stages.
//
// Per-node errors (validation, classification, generation, quality, transport)
// are recorded in batch results and processing moves on. Circuit-open and
// kill-switch errors stop the batch.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCircuitOpen is returned when the publish circuit breaker has tripped.
	ErrCircuitOpen = errors.New("circuit breaker open")
	// ErrKillSwitch is returned when an operator has disabled publishing.
	ErrKillSwitch = errors.New("kill switch active: publishing disabled")
	// ErrBudgetExceeded is returned when a service budget vetoes an operation.
	ErrBudgetExceeded = errors.New("budget exceeded")
	// ErrNotConfigured marks an external capability without credentials.
	ErrNotConfigured = errors.New("not configured")
)

// ValidationError lists every missing or invalid field of a node.
type ValidationError struct {
	Op      string
	NodeID  string
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed for %s: %s", e.Op, e.NodeID, strings.Join(e.Reasons, ", "))
}

// ClassificationError means the reasoning backend could not classify a keyword.
type ClassificationError struct {
	Keyword string
	Err     error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classifying %q: %v", e.Keyword, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// GenerationError means content generation produced nothing usable.
type GenerationError struct {
	NodeID string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating content for %s: %v", e.NodeID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// QualityGateFailure reports content that was stored as blocked_quality.
type QualityGateFailure struct {
	NodeID  string
	Reasons []string
}

func (e *QualityGateFailure) Error() string {
	return fmt.Sprintf("quality gates failed for %s: %s", e.NodeID, strings.Join(e.Reasons, "; "))
}

// TransportError wraps a failed call to an external service.
type TransportError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	}
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Service, e.StatusCode, body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsBatchFatal reports whether err should stop the remaining batch.
func IsBatchFatal(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrKillSwitch)
}

// Kind returns a short label for err, used in batch summaries.
func Kind(err error) string {
	var (
		ve *ValidationError
		ce *ClassificationError
		ge *GenerationError
		qe *QualityGateFailure
		te *TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrKillSwitch):
		return "kill_switch"
	case errors.Is(err, ErrBudgetExceeded):
		return "budget"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &ce):
		return "classification"
	case errors.As(err, &ge):
		return "generation"
	case errors.As(err, &qe):
		return "quality_gate"
	case errors.As(err, &te):
		return "transport"
	default:
		return "error"
	}
}
