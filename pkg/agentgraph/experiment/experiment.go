// Package experiment runs an agent over a dataset and scores the
// outputs, producing a report that can gate a deployment.
//
// An experiment is sequential: records run one at a time in dataset
// order, honoring the caller's context between records. Scores are
// averaged per scorer and checked against thresholds.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/dataset"
)

// RunnerFunc produces the agent's output for one dataset input.
type RunnerFunc func(ctx context.Context, input string) (string, error)

// Scorer grades one output against its dataset record.
// Scores are in [0, 1], higher is better.
type Scorer interface {
	Name() string
	Score(record dataset.Record, output string) float64
}

// Built-in scorer names, usable as threshold keys.
const (
	ScorerExactMatch        = "exact_match"
	ScorerContainsReference = "contains_reference"
	ScorerNonEmpty          = "non_empty"
)

// ErrNoRecords indicates an experiment was started with an empty dataset.
var ErrNoRecords = errors.New("experiment has no records")

// CaseResult is the outcome of one dataset record.
type CaseResult struct {
	Input  string             `json:"input"`
	Output string             `json:"output"`
	Error  string             `json:"error,omitempty"`
	Scores map[string]float64 `json:"scores"`
}

// Report summarizes one experiment run.
type Report struct {
	Name     string             `json:"name"`
	Cases    []CaseResult       `json:"cases"`
	Averages map[string]float64 `json:"averages"`
	Errors   int                `json:"errors"`
	Duration time.Duration      `json:"duration"`
}

// Thresholds maps scorer names to the minimum acceptable average.
type Thresholds map[string]float64

// ThresholdError reports which thresholds a run missed.
type ThresholdError struct {
	Failures []string
}

func (e *ThresholdError) Error() string {
	return "thresholds not met: " + strings.Join(e.Failures, "; ")
}

// Check compares the report's averages against thresholds.
// Returns a *ThresholdError naming every miss, or nil when all pass.
// A threshold on a scorer the run didn't use counts as a miss.
func (r *Report) Check(t Thresholds) error {
	var failures []string
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		min := t[name]
		avg, ok := r.Averages[name]
		if !ok {
			failures = append(failures, fmt.Sprintf("%s: no scores recorded (need >= %.2f)", name, min))
			continue
		}
		if avg < min {
			failures = append(failures, fmt.Sprintf("%s: %.3f < %.2f", name, avg, min))
		}
	}

	if len(failures) > 0 {
		return &ThresholdError{Failures: failures}
	}
	return nil
}

// Option configures an experiment run.
type Option func(*runner)

// WithLogger sets the structured logger for run progress.
func WithLogger(log *slog.Logger) Option {
	return func(r *runner) { r.log = log }
}

type runner struct {
	log *slog.Logger
}

// Run executes the experiment: every record through fn, every output
// through every scorer.
//
// A record whose runner call fails scores zero on all scorers and is
// counted in Report.Errors; the run continues. Only context
// cancellation aborts the run early.
func Run(ctx context.Context, name string, records []dataset.Record, fn RunnerFunc, scorers []Scorer, opts ...Option) (*Report, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	r := runner{log: slog.Default()}
	for _, opt := range opts {
		opt(&r)
	}

	start := time.Now()
	report := &Report{
		Name:     name,
		Cases:    make([]CaseResult, 0, len(records)),
		Averages: make(map[string]float64),
	}
	totals := make(map[string]float64)

	r.log.Info("experiment started",
		slog.String("experiment", name),
		slog.Int("records", len(records)),
		slog.Int("scorers", len(scorers)),
	)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cr := CaseResult{Input: rec.Input, Scores: make(map[string]float64)}

		output, err := fn(ctx, rec.Input)
		if err != nil {
			cr.Error = err.Error()
			report.Errors++
			r.log.Warn("case failed",
				slog.String("experiment", name),
				slog.Int("case", i),
				slog.String("error", err.Error()),
			)
		} else {
			cr.Output = output
		}

		for _, s := range scorers {
			score := 0.0
			if err == nil {
				score = s.Score(rec, output)
			}
			cr.Scores[s.Name()] = score
			totals[s.Name()] += score
		}

		report.Cases = append(report.Cases, cr)
	}

	for name, total := range totals {
		report.Averages[name] = total / float64(len(records))
	}
	report.Duration = time.Since(start)

	r.log.Info("experiment complete",
		slog.String("experiment", name),
		slog.Int("cases", len(report.Cases)),
		slog.Int("errors", report.Errors),
		slog.Int64("duration_ms", report.Duration.Milliseconds()),
	)

	return report, nil
}
