// Package tracelog records sessions, traces, and spans for agent turns.
//
// One trace covers one turn; spans inside it record the turn's
// sub-steps (guardrail check, model calls, tool invocations, retrieval).
// Spans are emitted as OpenTelemetry spans through the configured tracer
// provider and mirrored as structured slog records, so both a tracing
// backend and plain log output see the same picture.
//
// Trace storage belongs to whatever backend the OTel exporter ships
// spans to; this package owns no persistence.
package tracelog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Logger records traces for a (project, log stream) pair.
// Logger is safe for concurrent use; each Trace is owned by one turn.
type Logger struct {
	project   string
	logStream string

	log    *slog.Logger
	tracer trace.Tracer

	mu        sync.Mutex
	sessionID string
	session   string
	completed []Record
}

// Option configures a Logger.
type Option func(*Logger)

// WithLogger sets the structured logger used to mirror spans.
func WithLogger(log *slog.Logger) Option {
	return func(l *Logger) { l.log = log }
}

// WithTracerProvider sets the OTel tracer provider.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(l *Logger) { l.tracer = tp.Tracer("agentgraph/tracelog") }
}

// New creates a trace logger for a project and log stream.
func New(project, logStream string, opts ...Option) *Logger {
	l := &Logger{
		project:   project,
		logStream: logStream,
		log:       slog.Default(),
		tracer:    otel.Tracer("agentgraph/tracelog"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// StartSession begins a named session. Subsequent traces are tagged
// with the session until the next StartSession call.
// Returns the generated session ID.
func (l *Logger) StartSession(name, externalID string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sessionID = uuid.New().String()
	l.session = name

	l.log.Info("session started",
		slog.String("project", l.project),
		slog.String("log_stream", l.logStream),
		slog.String("session", name),
		slog.String("session_id", l.sessionID),
		slog.String("external_id", externalID),
	)
	return l.sessionID
}

// StartTrace begins a trace for one turn.
// The returned Trace must be finished with Conclude, ConcludeError,
// or Discard.
func (l *Logger) StartTrace(ctx context.Context, input, name string) *Trace {
	l.mu.Lock()
	sessionID := l.sessionID
	session := l.session
	l.mu.Unlock()

	spanCtx, span := l.tracer.Start(ctx, "tracelog.trace",
		trace.WithAttributes(
			attribute.String("project", l.project),
			attribute.String("log_stream", l.logStream),
			attribute.String("trace.name", name),
			attribute.String("session.id", sessionID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return &Trace{
		logger: l,
		ctx:    spanCtx,
		span:   span,
		record: Record{
			Name:      name,
			Input:     input,
			SessionID: sessionID,
			Session:   session,
			StartedAt: time.Now().UTC(),
		},
	}
}

// Flush reports and clears the completed trace buffer.
// Span export itself is the OTel SDK's job; Flush only drains the
// in-memory records kept for inspection.
func (l *Logger) Flush() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	flushed := l.completed
	l.completed = nil

	l.log.Info("traces flushed",
		slog.String("project", l.project),
		slog.String("log_stream", l.logStream),
		slog.Int("count", len(flushed)),
	)
	return flushed
}

// Traces returns a snapshot of completed, unflushed traces.
func (l *Logger) Traces() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Record(nil), l.completed...)
}

// complete appends a finished trace record.
func (l *Logger) complete(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completed = append(l.completed, r)
}
