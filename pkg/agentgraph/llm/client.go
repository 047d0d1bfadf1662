package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client is the model client contract.
// Complete sends the full ordered message sequence plus tool schemas
// and returns exactly one assistant message, which may carry tool-call
// requests. Implementations must honor context cancellation.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Error wraps model client failures with operation context.
type Error struct {
	// Op is the operation that failed (e.g., "complete").
	Op string
	// Err is the underlying error.
	Err error
	// Retryable hints whether the caller could retry the request.
	Retryable bool
}

// NewError creates a client error.
func NewError(op string, err error, retryable bool) *Error {
	return &Error{Op: op, Err: err, Retryable: retryable}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// isRetryableStatus reports whether an HTTP status is worth retrying.
func isRetryableStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}

// isRetryableError inspects an error message for transient failure hints.
func isRetryableError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, hint := range []string{"rate limit", "overloaded", "timeout", "temporarily"} {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
