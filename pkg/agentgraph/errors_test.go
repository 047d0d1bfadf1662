package agentgraph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNodeError_Unwrap preserves the underlying error chain.
func TestNodeError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &NodeError{NodeID: "chat_completion", Op: "execute", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "chat_completion")
	assert.Contains(t, err.Error(), "execute")
}

// TestPanicError_Message includes the node and panic value.
func TestPanicError_Message(t *testing.T) {
	err := &PanicError{NodeID: "tool_dispatch", Value: "nil map write", Stack: "stack..."}

	assert.Contains(t, err.Error(), "tool_dispatch")
	assert.Contains(t, err.Error(), "nil map write")
}

// TestCancellationError_Unwrap surfaces the context cause.
func TestCancellationError_Unwrap(t *testing.T) {
	err := &CancellationError{NodeID: "chat_completion", Cause: context.DeadlineExceeded}

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "chat_completion")
}

// TestRouterError_Unwrap surfaces the routing sentinel.
func TestRouterError_Unwrap(t *testing.T) {
	err := &RouterError{FromNode: "screen", Returned: "ghost", Err: ErrRouterTargetNotFound}

	assert.ErrorIs(t, err, ErrRouterTargetNotFound)
	assert.Contains(t, err.Error(), "screen")
	assert.Contains(t, err.Error(), "ghost")
}

// TestMaxIterationsError_Unwrap matches the sentinel and keeps state.
func TestMaxIterationsError_Unwrap(t *testing.T) {
	err := &MaxIterationsError{Max: 23, LastNodeID: "dispatch", State: Counter{Value: 7}}

	assert.ErrorIs(t, err, ErrMaxIterations)

	state, ok := err.State.(Counter)
	assert.True(t, ok)
	assert.Equal(t, 7, state.Value)
}
