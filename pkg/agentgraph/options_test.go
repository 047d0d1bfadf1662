package agentgraph

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWithMaxIterations_IgnoresNonPositive keeps the default for n <= 0.
func TestWithMaxIterations_IgnoresNonPositive(t *testing.T) {
	cfg := defaultRunConfig()
	WithMaxIterations(0)(&cfg)
	assert.Equal(t, 100, cfg.maxIterations)

	WithMaxIterations(-5)(&cfg)
	assert.Equal(t, 100, cfg.maxIterations)

	WithMaxIterations(7)(&cfg)
	assert.Equal(t, 7, cfg.maxIterations)
}

// TestWithRunID_OverridesContextRunID prefers the run option over the
// context's run ID in lifecycle logs.
func TestWithRunID_OverridesContextRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	ctx := NewContext(t.Context(), WithContextRunID("from-context"))
	_, err = compiled.Run(ctx, Counter{},
		WithRunID("from-option"),
		WithObservabilityLogger(logger),
	)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "from-option")
}

// TestWithObservabilityLogger_LifecycleEvents emits run start and
// completion records.
func TestWithObservabilityLogger_LifecycleEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), Counter{}, WithObservabilityLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "graph run starting")
	assert.Contains(t, out, "node completed")
	assert.Contains(t, out, "graph run completed")
}

// TestRun_NoLogger runs cleanly with no observability configured.
func TestRun_NoLogger(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddEdge("a", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), Counter{Value: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Value)
}
