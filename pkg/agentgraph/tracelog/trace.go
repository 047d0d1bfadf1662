package tracelog

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Record is the retained summary of one finished trace.
type Record struct {
	Name      string
	Input     string
	Output    string
	Error     string
	SessionID string
	Session   string
	StartedAt time.Time
	Spans     []SpanRecord
}

// SpanRecord summarizes one span within a trace.
type SpanRecord struct {
	Kind     string // "llm", "tool", "retriever", "guardrail"
	Name     string
	Input    string
	Output   string
	Failed   bool
	Duration time.Duration
}

// LLMSpan describes one model invocation.
type LLMSpan struct {
	Name         string
	Input        string
	Output       string
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Duration     time.Duration
}

// ToolSpan describes one tool invocation.
type ToolSpan struct {
	Name     string
	CallID   string
	Input    string
	Output   string
	Failed   bool
	Duration time.Duration
}

// RetrieverSpan describes one retrieval step.
type RetrieverSpan struct {
	Name      string
	Input     string
	Documents []string
	Source    string
	Duration  time.Duration
}

// GuardrailSpan describes one guardrail check.
type GuardrailSpan struct {
	PolicyID  string
	Input     string
	Triggered bool
}

// Trace is one in-flight turn trace.
// A Trace is owned by a single turn and is not safe for concurrent use.
type Trace struct {
	logger *Logger
	ctx    context.Context
	span   trace.Span
	record Record
	done   bool
}

// AddLLMSpan records a model invocation span.
func (t *Trace) AddLLMSpan(s LLMSpan) {
	t.child("llm", s.Name, s.Duration,
		attribute.String("llm.model", s.Model),
		attribute.Int("llm.tokens.input", s.InputTokens),
		attribute.Int("llm.tokens.output", s.OutputTokens),
		attribute.Int("llm.tokens.total", s.TotalTokens),
	)

	t.logger.log.Debug("llm span",
		slog.String("trace", t.record.Name),
		slog.String("name", s.Name),
		slog.String("model", s.Model),
		slog.Int("total_tokens", s.TotalTokens),
		slog.Int64("duration_ms", s.Duration.Milliseconds()),
	)

	t.record.Spans = append(t.record.Spans, SpanRecord{
		Kind: "llm", Name: s.Name, Input: s.Input, Output: s.Output, Duration: s.Duration,
	})
}

// AddToolSpan records a tool invocation span.
func (t *Trace) AddToolSpan(s ToolSpan) {
	t.child("tool", s.Name, s.Duration,
		attribute.String("tool.call_id", s.CallID),
		attribute.Bool("tool.failed", s.Failed),
	)

	t.logger.log.Debug("tool span",
		slog.String("trace", t.record.Name),
		slog.String("tool", s.Name),
		slog.String("call_id", s.CallID),
		slog.Bool("failed", s.Failed),
		slog.Int64("duration_ms", s.Duration.Milliseconds()),
	)

	t.record.Spans = append(t.record.Spans, SpanRecord{
		Kind: "tool", Name: s.Name, Input: s.Input, Output: s.Output,
		Failed: s.Failed, Duration: s.Duration,
	})
}

// AddRetrieverSpan records a retrieval span.
func (t *Trace) AddRetrieverSpan(s RetrieverSpan) {
	t.child("retriever", s.Name, s.Duration,
		attribute.String("retriever.source", s.Source),
		attribute.Int("retriever.documents", len(s.Documents)),
	)

	t.logger.log.Debug("retriever span",
		slog.String("trace", t.record.Name),
		slog.String("name", s.Name),
		slog.String("source", s.Source),
		slog.Int("documents", len(s.Documents)),
	)

	t.record.Spans = append(t.record.Spans, SpanRecord{
		Kind: "retriever", Name: s.Name, Input: s.Input, Duration: s.Duration,
	})
}

// AddGuardrailSpan records a guardrail check span.
func (t *Trace) AddGuardrailSpan(s GuardrailSpan) {
	t.child("guardrail", s.PolicyID, 0,
		attribute.String("guardrail.policy_id", s.PolicyID),
		attribute.Bool("guardrail.triggered", s.Triggered),
	)

	t.logger.log.Debug("guardrail span",
		slog.String("trace", t.record.Name),
		slog.String("policy_id", s.PolicyID),
		slog.Bool("triggered", s.Triggered),
	)

	t.record.Spans = append(t.record.Spans, SpanRecord{
		Kind: "guardrail", Name: s.PolicyID, Input: s.Input, Failed: s.Triggered,
	})
}

// Conclude finishes the trace with its final output.
func (t *Trace) Conclude(output string) {
	if t.done {
		return
	}
	t.done = true

	t.record.Output = output
	t.span.SetAttributes(attribute.Int("trace.spans", len(t.record.Spans)))
	t.span.SetStatus(codes.Ok, "")
	t.span.End()

	t.logger.complete(t.record)
}

// ConcludeError finishes the trace as failed.
func (t *Trace) ConcludeError(err error) {
	if t.done {
		return
	}
	t.done = true

	t.record.Error = err.Error()
	t.span.RecordError(err)
	t.span.SetStatus(codes.Error, err.Error())
	t.span.End()

	t.logger.complete(t.record)
}

// Discard finishes the trace without retaining its record.
// Used for guardrail-blocked turns when blocked-turn logging is off.
func (t *Trace) Discard() {
	if t.done {
		return
	}
	t.done = true

	t.span.SetAttributes(attribute.Bool("trace.discarded", true))
	t.span.End()
}

// child emits one already-finished span under the trace.
func (t *Trace) child(kind, name string, duration time.Duration, attrs ...attribute.KeyValue) {
	start := time.Now().Add(-duration)
	_, span := t.logger.tracer.Start(t.ctx, "tracelog."+kind+"."+name,
		trace.WithTimestamp(start),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.End(trace.WithTimestamp(start.Add(duration)))
}
