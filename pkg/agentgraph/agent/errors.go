package agent

import (
	"errors"
	"fmt"
)

// Sentinel errors for agent construction and execution.
var (
	// ErrNilModelClient indicates New() was called without a model client.
	ErrNilModelClient = errors.New("model client cannot be nil")

	// ErrGuardrailClientMissing indicates a guardrail policy was
	// configured without a guardrail client to evaluate it.
	ErrGuardrailClientMissing = errors.New("guardrail policy configured but no guardrail client provided")

	// ErrMaxToolRounds indicates the model kept requesting tools past
	// the configured round limit.
	ErrMaxToolRounds = errors.New("exceeded maximum tool-call rounds")
)

// ConfigError reports an invalid agent configuration.
// Configuration faults are fatal at construction time: the agent is
// never built, so a misconfigured graph cannot run.
type ConfigError struct {
	// Field is the configuration field at fault.
	Field string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("agent config: %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ModelError reports a model invocation failure.
// Model faults are fatal to the turn and propagate to the caller.
type ModelError struct {
	// Round is the completion round that failed (0 = first call).
	Round int
	// Err is the underlying client error.
	Err error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	return fmt.Sprintf("model invocation (round %d): %v", e.Round, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ModelError) Unwrap() error {
	return e.Err
}

// ToolRoundsError reports that tool dispatch exceeded the round limit.
type ToolRoundsError struct {
	// Max is the configured round limit.
	Max int
}

// Error implements the error interface.
func (e *ToolRoundsError) Error() string {
	return fmt.Sprintf("exceeded maximum tool-call rounds (%d)", e.Max)
}

// Unwrap returns ErrMaxToolRounds for errors.Is support.
func (e *ToolRoundsError) Unwrap() error {
	return ErrMaxToolRounds
}
