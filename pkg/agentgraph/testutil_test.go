package agentgraph

import (
	"context"
)

// Test state types used across tests

// Counter is a simple state for testing incrementing.
type Counter struct {
	Value int
}

// turnState mimics conversational state: an ordered transcript plus
// routing flags.
type turnState struct {
	Transcript []string
	Blocked    bool
	Rounds     int
	Done       bool
}

// Helper node functions

// increment is a node that increments the counter.
func increment(ctx Context, s Counter) (Counter, error) {
	s.Value++
	return s, nil
}

// makeAppendNode creates a node that appends its name to the transcript
// and records the execution order.
func makeAppendNode(name string, order *[]string) NodeFunc[turnState] {
	return func(ctx Context, s turnState) (turnState, error) {
		*order = append(*order, name)
		s.Transcript = append(s.Transcript, name)
		return s, nil
	}
}

// makeFailingNode creates a node that returns the given error.
func makeFailingNode(err error) NodeFunc[turnState] {
	return func(ctx Context, s turnState) (turnState, error) {
		return s, err
	}
}

// makePanicNode creates a node that panics with the given value.
func makePanicNode(value any) NodeFunc[turnState] {
	return func(ctx Context, s turnState) (turnState, error) {
		panic(value)
	}
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}
