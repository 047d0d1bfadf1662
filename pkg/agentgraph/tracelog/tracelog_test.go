package tracelog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newTestLogger wires a Logger to an in-memory span exporter.
func newTestLogger(t *testing.T) (*Logger, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("error shutting down tracer provider: %v", err)
		}
	})

	logger := New("demo-project", "test-stream", WithTracerProvider(tp))
	return logger, exporter
}

// TestStartSession tags subsequent traces with the session.
func TestStartSession(t *testing.T) {
	logger, _ := newTestLogger(t)

	sessionID := logger.StartSession("support chat", "user-42")
	assert.NotEmpty(t, sessionID)

	tr := logger.StartTrace(context.Background(), "hello", "turn 1")
	tr.Conclude("hi there")

	records := logger.Traces()
	require.Len(t, records, 1)
	assert.Equal(t, sessionID, records[0].SessionID)
	assert.Equal(t, "support chat", records[0].Session)

	// A new session gets a new ID.
	second := logger.StartSession("another", "")
	assert.NotEqual(t, sessionID, second)
}

// TestTrace_Conclude retains input, output, and spans.
func TestTrace_Conclude(t *testing.T) {
	logger, exporter := newTestLogger(t)

	tr := logger.StartTrace(context.Background(), "weather in Paris?", "turn 1")
	tr.AddLLMSpan(LLMSpan{
		Name: "llm call (round 0)", Model: "gpt-4o-mini",
		Input: "weather in Paris?", Output: "checking...",
		InputTokens: 10, OutputTokens: 5, TotalTokens: 15,
		Duration: 120 * time.Millisecond,
	})
	tr.AddToolSpan(ToolSpan{
		Name: "get_weather", CallID: "call_1",
		Input: `{"location":"Paris"}`, Output: "sunny",
		Duration: 8 * time.Millisecond,
	})
	tr.Conclude("It is sunny in Paris.")

	records := logger.Traces()
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "weather in Paris?", rec.Input)
	assert.Equal(t, "It is sunny in Paris.", rec.Output)
	assert.Empty(t, rec.Error)
	require.Len(t, rec.Spans, 2)
	assert.Equal(t, "llm", rec.Spans[0].Kind)
	assert.Equal(t, "tool", rec.Spans[1].Kind)
	assert.False(t, rec.StartedAt.IsZero())

	// Trace span plus two child spans were exported.
	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
}

// TestTrace_ConcludeError records the failure.
func TestTrace_ConcludeError(t *testing.T) {
	logger, _ := newTestLogger(t)

	tr := logger.StartTrace(context.Background(), "input", "turn 1")
	tr.ConcludeError(errors.New("model unavailable"))

	records := logger.Traces()
	require.Len(t, records, 1)
	assert.Equal(t, "model unavailable", records[0].Error)
}

// TestTrace_Discard drops the record but still ends the span.
func TestTrace_Discard(t *testing.T) {
	logger, exporter := newTestLogger(t)

	tr := logger.StartTrace(context.Background(), "blocked input", "turn 1")
	tr.AddGuardrailSpan(GuardrailSpan{PolicyID: "pii-block", Triggered: true})
	tr.Discard()

	assert.Empty(t, logger.Traces())
	// The OTel spans still shipped; only the retained record is dropped.
	assert.NotEmpty(t, exporter.GetSpans())
}

// TestTrace_Idempotent ignores a second conclusion.
func TestTrace_Idempotent(t *testing.T) {
	logger, _ := newTestLogger(t)

	tr := logger.StartTrace(context.Background(), "in", "turn 1")
	tr.Conclude("first")
	tr.Conclude("second")
	tr.ConcludeError(errors.New("late"))

	records := logger.Traces()
	require.Len(t, records, 1)
	assert.Equal(t, "first", records[0].Output)
}

// TestFlush drains the completed buffer.
func TestFlush(t *testing.T) {
	logger, _ := newTestLogger(t)

	logger.StartTrace(context.Background(), "a", "turn 1").Conclude("x")
	logger.StartTrace(context.Background(), "b", "turn 2").Conclude("y")

	flushed := logger.Flush()
	assert.Len(t, flushed, 2)
	assert.Empty(t, logger.Traces())
	assert.Empty(t, logger.Flush())
}

// TestGuardrailSpan_MarksFailed records triggered checks as failed spans.
func TestGuardrailSpan_MarksFailed(t *testing.T) {
	logger, _ := newTestLogger(t)

	tr := logger.StartTrace(context.Background(), "my SSN is ...", "turn 1")
	tr.AddGuardrailSpan(GuardrailSpan{
		PolicyID:  "pii-block",
		Input:     "my SSN is ...",
		Triggered: true,
	})
	tr.Conclude("blocked")

	records := logger.Traces()
	require.Len(t, records, 1)
	require.Len(t, records[0].Spans, 1)
	assert.Equal(t, "guardrail", records[0].Spans[0].Kind)
	assert.True(t, records[0].Spans[0].Failed)
}
