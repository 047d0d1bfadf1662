package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/guardrail"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/session"
)

// TestRunner_MultiTurn persists each turn and feeds the history into
// the next one.
func TestRunner_MultiTurn(t *testing.T) {
	model := &fakeModel{responses: []*llm.CompletionResponse{
		textResponse("The capital is Paris."),
		textResponse("Its population is about 2 million."),
	}}

	a, err := New(Config{}, model)
	require.NoError(t, err)

	store := session.NewMemoryStore()
	defer store.Close()
	runner := NewRunner(a, store)

	ctx := context.Background()

	first, err := runner.RunTurn(ctx, "s1", "Capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "The capital is Paris.", first.FinalMessage().Content)

	second, err := runner.RunTurn(ctx, "s1", "And its population?")
	require.NoError(t, err)
	assert.Equal(t, "Its population is about 2 million.", second.FinalMessage().Content)

	// The second completion saw the full prior exchange.
	require.Len(t, model.requests, 2)
	assert.Len(t, model.requests[1].Messages, 4)

	history, err := runner.History("s1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "Capital of France?", history[0].Content)
	assert.Equal(t, "And its population?", history[2].Content)
}

// TestRunner_SystemPromptNotStored re-inserts the configured prompt per
// turn instead of persisting it.
func TestRunner_SystemPromptNotStored(t *testing.T) {
	model := &fakeModel{responses: []*llm.CompletionResponse{
		textResponse("one"),
		textResponse("two"),
	}}

	a, err := New(Config{SystemPrompt: "Be brief."}, model)
	require.NoError(t, err)

	store := session.NewMemoryStore()
	defer store.Close()
	runner := NewRunner(a, store)

	ctx := context.Background()
	_, err = runner.RunTurn(ctx, "s1", "first")
	require.NoError(t, err)
	_, err = runner.RunTurn(ctx, "s1", "second")
	require.NoError(t, err)

	history, err := runner.History("s1")
	require.NoError(t, err)
	for _, m := range history {
		assert.NotEqual(t, llm.RoleSystem, m.Role)
	}

	// Both model calls still saw exactly one system message at the head.
	for _, req := range model.requests {
		require.NotEmpty(t, req.Messages)
		assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	}
}

// TestRunner_BlockedTurnNotPersisted keeps guardrail-blocked turns out
// of the stored history.
func TestRunner_BlockedTurnNotPersisted(t *testing.T) {
	model := &fakeModel{responses: []*llm.CompletionResponse{
		textResponse("hello"),
	}}
	guard := &fakeGuardrail{verdict: &guardrail.Verdict{
		Status:       guardrail.StatusTriggered,
		OverrideText: "blocked",
	}}

	a, err := New(Config{GuardrailPolicyID: "pii-block"}, model,
		WithGuardrail(guard))
	require.NoError(t, err)

	store := session.NewMemoryStore()
	defer store.Close()
	runner := NewRunner(a, store)

	result, err := runner.RunTurn(context.Background(), "s1", "my SSN is 123-45-6789")
	require.NoError(t, err)
	assert.True(t, result.GuardrailTriggered)
	assert.Equal(t, "blocked", result.FinalMessage().Content)

	history, err := runner.History("s1")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, 0, store.Len())
}

// TestRunner_IndependentSessions keeps session histories separate.
func TestRunner_IndependentSessions(t *testing.T) {
	model := &fakeModel{responses: []*llm.CompletionResponse{
		textResponse("a"),
		textResponse("b"),
	}}

	a, err := New(Config{}, model)
	require.NoError(t, err)

	store := session.NewMemoryStore()
	defer store.Close()
	runner := NewRunner(a, store)

	ctx := context.Background()
	_, err = runner.RunTurn(ctx, "s1", "for session one")
	require.NoError(t, err)
	_, err = runner.RunTurn(ctx, "s2", "for session two")
	require.NoError(t, err)

	h1, err := runner.History("s1")
	require.NoError(t, err)
	h2, err := runner.History("s2")
	require.NoError(t, err)

	require.Len(t, h1, 2)
	require.Len(t, h2, 2)
	assert.Equal(t, "for session one", h1[0].Content)
	assert.Equal(t, "for session two", h2[0].Content)
}
