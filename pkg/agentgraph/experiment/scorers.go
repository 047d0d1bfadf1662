package experiment

import (
	"strings"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/dataset"
)

// scorerFunc adapts a function to the Scorer interface.
type scorerFunc struct {
	name string
	fn   func(record dataset.Record, output string) float64
}

func (s scorerFunc) Name() string { return s.name }

func (s scorerFunc) Score(record dataset.Record, output string) float64 {
	return s.fn(record, output)
}

// NewScorer wraps a scoring function.
func NewScorer(name string, fn func(record dataset.Record, output string) float64) Scorer {
	return scorerFunc{name: name, fn: fn}
}

// ExactMatch scores 1 when the output equals the reference output
// after trimming whitespace, case-insensitively.
func ExactMatch() Scorer {
	return NewScorer(ScorerExactMatch, func(rec dataset.Record, output string) float64 {
		if rec.ReferenceOutput == "" {
			return 0
		}
		if strings.EqualFold(strings.TrimSpace(output), strings.TrimSpace(rec.ReferenceOutput)) {
			return 1
		}
		return 0
	})
}

// ContainsReference scores 1 when the output contains the reference
// output, case-insensitively. A looser adherence check than ExactMatch.
func ContainsReference() Scorer {
	return NewScorer(ScorerContainsReference, func(rec dataset.Record, output string) float64 {
		if rec.ReferenceOutput == "" {
			return 0
		}
		if strings.Contains(strings.ToLower(output), strings.ToLower(strings.TrimSpace(rec.ReferenceOutput))) {
			return 1
		}
		return 0
	})
}

// NonEmpty scores 1 when the output has any non-whitespace content.
// Catches turns that produced nothing.
func NonEmpty() Scorer {
	return NewScorer(ScorerNonEmpty, func(_ dataset.Record, output string) float64 {
		if strings.TrimSpace(output) != "" {
			return 1
		}
		return 0
	})
}
