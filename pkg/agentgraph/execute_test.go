package agentgraph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRun_LinearFlow tests basic sequential execution.
func TestRun_LinearFlow(t *testing.T) {
	graph := NewGraph[Counter]().
		AddNode("inc1", increment).
		AddNode("inc2", increment).
		AddNode("inc3", increment).
		AddEdge("inc1", "inc2").
		AddEdge("inc2", "inc3").
		AddEdge("inc3", END).
		SetEntry("inc1")

	compiled, err := graph.Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), Counter{Value: 0})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Value)
}

// TestRun_NilContext returns ErrNilContext without executing anything.
func TestRun_NilContext(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(nil, Counter{})
	assert.ErrorIs(t, err, ErrNilContext)
}

// TestRun_ConditionalRouting routes based on state.
func TestRun_ConditionalRouting(t *testing.T) {
	var order []string

	graph := NewGraph[turnState]().
		AddNode("screen", makeAppendNode("screen", &order)).
		AddNode("respond", makeAppendNode("respond", &order)).
		AddConditionalEdge("screen", func(ctx Context, s turnState) string {
			if s.Blocked {
				return END
			}
			return "respond"
		}).
		AddEdge("respond", END).
		SetEntry("screen")

	compiled, err := graph.Compile()
	require.NoError(t, err)

	t.Run("clear input runs the full path", func(t *testing.T) {
		order = nil
		result, err := compiled.Run(testCtx(), turnState{})
		require.NoError(t, err)
		assert.Equal(t, []string{"screen", "respond"}, order)
		assert.Equal(t, []string{"screen", "respond"}, result.Transcript)
	})

	t.Run("blocked input short-circuits to END", func(t *testing.T) {
		order = nil
		result, err := compiled.Run(testCtx(), turnState{Blocked: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"screen"}, order)
		assert.Equal(t, []string{"screen"}, result.Transcript)
	})
}

// TestRun_LoopWithCap exercises a dispatch loop bounded by max iterations.
func TestRun_LoopWithCap(t *testing.T) {
	work := func(ctx Context, s turnState) (turnState, error) {
		s.Rounds++
		if s.Rounds >= 3 {
			s.Done = true
		}
		return s, nil
	}

	compiled, err := NewGraph[turnState]().
		AddNode("work", work).
		AddConditionalEdge("work", func(ctx Context, s turnState) string {
			if s.Done {
				return END
			}
			return "work"
		}).
		SetEntry("work").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), turnState{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rounds)
}

// TestRun_MaxIterationsExceeded fails an unbounded loop.
func TestRun_MaxIterationsExceeded(t *testing.T) {
	spin := func(ctx Context, s Counter) (Counter, error) {
		s.Value++
		return s, nil
	}

	compiled, err := NewGraph[Counter]().
		AddNode("spin", spin).
		AddConditionalEdge("spin", func(ctx Context, s Counter) string {
			return "spin"
		}).
		SetEntry("spin").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), Counter{}, WithMaxIterations(5))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxIterations)

	var maxErr *MaxIterationsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 5, maxErr.Max)
	assert.Equal(t, "spin", maxErr.LastNodeID)
	// State at the point of failure is preserved for debugging.
	assert.Equal(t, 5, result.Value)
}

// TestRun_NodeError wraps node failures with node context.
func TestRun_NodeError(t *testing.T) {
	sentinel := errors.New("model unavailable")

	compiled, err := NewGraph[turnState]().
		AddNode("ok", makeAppendNode("ok", &[]string{})).
		AddNode("bad", makeFailingNode(sentinel)).
		AddEdge("ok", "bad").
		AddEdge("bad", END).
		SetEntry("ok").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), turnState{})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)

	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "bad", nodeErr.NodeID)

	// State from before the failing node is returned.
	assert.Equal(t, []string{"ok"}, result.Transcript)
}

// TestRun_PanicRecovery converts node panics into PanicError.
func TestRun_PanicRecovery(t *testing.T) {
	compiled, err := NewGraph[turnState]().
		AddNode("boom", makePanicNode("tool exploded")).
		AddEdge("boom", END).
		SetEntry("boom").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), turnState{})

	require.Error(t, err)
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "boom", panicErr.NodeID)
	assert.Equal(t, "tool exploded", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
}

// TestRun_Cancellation stops execution between nodes.
func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := func(c Context, s Counter) (Counter, error) {
		cancel() // cancel mid-run; the check happens before the next node
		s.Value++
		return s, nil
	}

	compiled, err := NewGraph[Counter]().
		AddNode("first", first).
		AddNode("second", increment).
		AddEdge("first", "second").
		AddEdge("second", END).
		SetEntry("first").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(NewContext(ctx), Counter{})

	require.Error(t, err)
	var cancelErr *CancellationError
	require.ErrorAs(t, err, &cancelErr)
	assert.Equal(t, "second", cancelErr.NodeID)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Value)
}

// TestRun_CancellationBeforeStart never executes the entry node when the
// context is already cancelled.
func TestRun_CancellationBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executed := false
	node := func(c Context, s Counter) (Counter, error) {
		executed = true
		return s, nil
	}

	compiled, err := NewGraph[Counter]().
		AddNode("a", node).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(NewContext(ctx), Counter{})

	require.Error(t, err)
	assert.False(t, executed)
}

// TestRun_Timeout honors context deadlines.
func TestRun_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	slow := func(c Context, s Counter) (Counter, error) {
		time.Sleep(50 * time.Millisecond)
		return s, nil
	}

	compiled, err := NewGraph[Counter]().
		AddNode("slow1", slow).
		AddNode("slow2", slow).
		AddEdge("slow1", "slow2").
		AddEdge("slow2", END).
		SetEntry("slow1").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(NewContext(ctx), Counter{})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestRun_RouterEmptyResult fails when a router returns "".
func TestRun_RouterEmptyResult(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddConditionalEdge("a", func(ctx Context, s Counter) string {
			return ""
		}).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), Counter{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRouterResult)

	var routerErr *RouterError
	require.ErrorAs(t, err, &routerErr)
	assert.Equal(t, "a", routerErr.FromNode)
}

// TestRun_RouterUnknownTarget fails when a router names a missing node.
func TestRun_RouterUnknownTarget(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddConditionalEdge("a", func(ctx Context, s Counter) string {
			return "nowhere"
		}).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), Counter{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRouterTargetNotFound)
}

// TestRun_ConcurrentRuns shares one compiled graph across goroutines.
func TestRun_ConcurrentRuns(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("inc", increment).
		AddEdge("inc", END).
		SetEntry("inc").
		Compile()
	require.NoError(t, err)

	const runs = 20
	results := make(chan int, runs)
	for i := 0; i < runs; i++ {
		go func(start int) {
			result, err := compiled.Run(testCtx(), Counter{Value: start})
			if err != nil {
				results <- -1
				return
			}
			results <- result.Value
		}(i)
	}

	for i := 0; i < runs; i++ {
		v := <-results
		assert.GreaterOrEqual(t, v, 1)
	}
}
