// Package werrors defines the error taxonomy shared by the workflow core:
// sentinel values plus small wrapping types carrying the context each
// component needs (source agent, underlying cause). The orchestrator records
// these in state.Errors as a ProcessingError whose Message is the error's
// Error() text.
package werrors

import (
	"errors"
	"fmt"
)

// Sentinel errors. Components compare with errors.Is, never string matching.
var (
	// ErrValidationFailed indicates a state invariant was not met (missing
	// caseId, demographics out of range, ...).
	ErrValidationFailed = errors.New("validation failed")

	// ErrAgentExecutionFailed indicates an uncaught failure inside an agent,
	// wrapped by the executor.
	ErrAgentExecutionFailed = errors.New("agent execution failed")

	// ErrAgentTimeout indicates an agent's deadline expired before it returned.
	ErrAgentTimeout = errors.New("agent execution timed out")

	// ErrDependencyFailed indicates a stage's dependency did not complete,
	// marking it ineligible under the skip-dependents error policy.
	ErrDependencyFailed = errors.New("dependency stage failed")

	// ErrDataShape indicates an agent returned structurally invalid data;
	// the merger filters it rather than surfacing it as CRITICAL.
	ErrDataShape = errors.New("agent returned malformed data")

	// ErrAssembly indicates the transformation from final state to
	// CaseOutput failed partway; the assembler still returns a neutral shape.
	ErrAssembly = errors.New("result assembly failed")

	// ErrAgentNotFound indicates a stage name has no registered agent.
	ErrAgentNotFound = errors.New("agent not found in registry")

	// ErrChainHalted indicates the orchestrator stopped the workflow under
	// fail-fast or a CRITICAL error before Phase 2 completed.
	ErrChainHalted = errors.New("workflow halted")
)

// ValidationError wraps a state-invariant violation with the field that
// failed and the severity a caller should assign it.
type ValidationError struct {
	Field    string
	Severity string
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("validation: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError builds a ValidationError wrapping ErrValidationFailed.
func NewValidationError(field, severity, message string) *ValidationError {
	return &ValidationError{Field: field, Severity: severity, Err: fmt.Errorf("%w: %s", ErrValidationFailed, message)}
}

// AgentExecutionError wraps an uncaught failure from inside an agent,
// recording which agent raised it and the original cause.
type AgentExecutionError struct {
	AgentName string
	Cause     error
}

func (e *AgentExecutionError) Error() string {
	return fmt.Sprintf("agent %s: %v", e.AgentName, e.Cause)
}

func (e *AgentExecutionError) Unwrap() error { return errors.Join(ErrAgentExecutionFailed, e.Cause) }

// NewAgentExecutionError builds an AgentExecutionError.
func NewAgentExecutionError(agentName string, cause error) *AgentExecutionError {
	return &AgentExecutionError{AgentName: agentName, Cause: cause}
}

// AgentTimeoutError wraps a deadline expiry during an agent call.
type AgentTimeoutError struct {
	AgentName string
	TimeoutMs int64
}

func (e *AgentTimeoutError) Error() string {
	return fmt.Sprintf("agent %s: operation timed out after %dms", e.AgentName, e.TimeoutMs)
}

func (e *AgentTimeoutError) Unwrap() error { return ErrAgentTimeout }

// NewAgentTimeoutError builds an AgentTimeoutError.
func NewAgentTimeoutError(agentName string, timeoutMs int64) *AgentTimeoutError {
	return &AgentTimeoutError{AgentName: agentName, TimeoutMs: timeoutMs}
}

// DependencyError records that a stage was skipped because a dependency of
// it failed under the skip-dependents error policy.
type DependencyError struct {
	StageName      string
	FailedUpstream string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("stage %s skipped: dependency %s failed", e.StageName, e.FailedUpstream)
}

func (e *DependencyError) Unwrap() error { return ErrDependencyFailed }

// NewDependencyError builds a DependencyError.
func NewDependencyError(stageName, failedUpstream string) *DependencyError {
	return &DependencyError{StageName: stageName, FailedUpstream: failedUpstream}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCritical reports whether err represents a CRITICAL-severity condition
// that must halt the workflow regardless of error policy.
func IsCritical(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Severity == "CRITICAL"
	}
	return false
}
