package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records agentgraph metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records a node execution with its duration and error status.
	RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error)

	// RecordGraphRun records a graph run (one turn) completion.
	RecordGraphRun(ctx context.Context, success bool, duration time.Duration)

	// RecordGuardrailTrigger records a guardrail override of a turn.
	RecordGuardrailTrigger(ctx context.Context, policyID string)

	// RecordToolCall records a tool invocation and whether it produced
	// an error-text result.
	RecordToolCall(ctx context.Context, toolName string, duration time.Duration, failed bool)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	nodeExecutions    metric.Int64Counter
	nodeLatency       metric.Float64Histogram
	nodeErrors        metric.Int64Counter
	turnRuns          metric.Int64Counter
	turnLatency       metric.Float64Histogram
	guardrailTriggers metric.Int64Counter
	toolCalls         metric.Int64Counter
	toolLatency       metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("agentgraph")

	nodeExecutions, err := meter.Int64Counter("agentgraph.node.executions",
		metric.WithDescription("Number of node executions"),
	)
	if err != nil {
		return nil, err
	}

	nodeLatency, err := meter.Float64Histogram("agentgraph.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nodeErrors, err := meter.Int64Counter("agentgraph.node.errors",
		metric.WithDescription("Number of node execution errors"),
	)
	if err != nil {
		return nil, err
	}

	turnRuns, err := meter.Int64Counter("agentgraph.turn.runs",
		metric.WithDescription("Number of turn executions"),
	)
	if err != nil {
		return nil, err
	}

	turnLatency, err := meter.Float64Histogram("agentgraph.turn.latency_ms",
		metric.WithDescription("Turn execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	guardrailTriggers, err := meter.Int64Counter("agentgraph.guardrail.triggers",
		metric.WithDescription("Number of guardrail-triggered turns"),
	)
	if err != nil {
		return nil, err
	}

	toolCalls, err := meter.Int64Counter("agentgraph.tool.calls",
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}

	toolLatency, err := meter.Float64Histogram("agentgraph.tool.latency_ms",
		metric.WithDescription("Tool invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeExecutions:    nodeExecutions,
		nodeLatency:       nodeLatency,
		nodeErrors:        nodeErrors,
		turnRuns:          turnRuns,
		turnLatency:       turnLatency,
		guardrailTriggers: guardrailTriggers,
		toolCalls:         toolCalls,
		toolLatency:       toolLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
//
// If metric instruments cannot be created, a warning is logged and a
// no-op recorder is returned.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("failed to initialize OTel metrics, using noop", "error", err.Error())
		return NoopMetrics{}
	}
	return m
}

// RecordNodeExecution implements MetricsRecorder.
func (m *otelMetrics) RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("node.id", nodeID),
	)

	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), attrs)

	if err != nil {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

// RecordGraphRun implements MetricsRecorder.
func (m *otelMetrics) RecordGraphRun(ctx context.Context, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.Bool("success", success),
	)

	m.turnRuns.Add(ctx, 1, attrs)
	m.turnLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordGuardrailTrigger implements MetricsRecorder.
func (m *otelMetrics) RecordGuardrailTrigger(ctx context.Context, policyID string) {
	m.guardrailTriggers.Add(ctx, 1, metric.WithAttributes(
		attribute.String("policy.id", policyID),
	))
}

// RecordToolCall implements MetricsRecorder.
func (m *otelMetrics) RecordToolCall(ctx context.Context, toolName string, duration time.Duration, failed bool) {
	attrs := metric.WithAttributes(
		attribute.String("tool.name", toolName),
		attribute.Bool("failed", failed),
	)

	m.toolCalls.Add(ctx, 1, attrs)
	m.toolLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}
