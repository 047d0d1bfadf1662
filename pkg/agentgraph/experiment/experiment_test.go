package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/dataset"
)

func qaRecords() []dataset.Record {
	return []dataset.Record{
		{Input: "capital of France?", ReferenceOutput: "Paris"},
		{Input: "2 + 2?", ReferenceOutput: "4"},
		{Input: "largest ocean?", ReferenceOutput: "Pacific"},
	}
}

// TestRun_ScoresAndAverages runs every record through every scorer.
func TestRun_ScoresAndAverages(t *testing.T) {
	fn := func(ctx context.Context, input string) (string, error) {
		switch input {
		case "capital of France?":
			return "Paris", nil // exact
		case "2 + 2?":
			return "The answer is 4.", nil // contains only
		default:
			return "no idea", nil // miss
		}
	}

	report, err := Run(context.Background(), "qa", qaRecords(), fn,
		[]Scorer{ExactMatch(), ContainsReference(), NonEmpty()})

	require.NoError(t, err)
	require.Len(t, report.Cases, 3)
	assert.Equal(t, 0, report.Errors)

	assert.InDelta(t, 1.0/3.0, report.Averages[ScorerExactMatch], 0.001)
	assert.InDelta(t, 2.0/3.0, report.Averages[ScorerContainsReference], 0.001)
	assert.InDelta(t, 1.0, report.Averages[ScorerNonEmpty], 0.001)

	assert.Equal(t, 1.0, report.Cases[0].Scores[ScorerExactMatch])
	assert.Equal(t, 0.0, report.Cases[1].Scores[ScorerExactMatch])
	assert.Equal(t, 1.0, report.Cases[1].Scores[ScorerContainsReference])
}

// TestRun_RunnerErrors score zero and count as errors; the run continues.
func TestRun_RunnerErrors(t *testing.T) {
	fn := func(ctx context.Context, input string) (string, error) {
		if input == "2 + 2?" {
			return "", errors.New("model timeout")
		}
		return "Paris", nil
	}

	report, err := Run(context.Background(), "qa", qaRecords(), fn,
		[]Scorer{NonEmpty()})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	require.Len(t, report.Cases, 3)
	assert.Equal(t, "model timeout", report.Cases[1].Error)
	assert.Equal(t, 0.0, report.Cases[1].Scores[ScorerNonEmpty])
	assert.InDelta(t, 2.0/3.0, report.Averages[ScorerNonEmpty], 0.001)
}

// TestRun_EmptyDataset fails fast.
func TestRun_EmptyDataset(t *testing.T) {
	fn := func(ctx context.Context, input string) (string, error) { return "", nil }

	_, err := Run(context.Background(), "empty", nil, fn, []Scorer{NonEmpty()})
	assert.ErrorIs(t, err, ErrNoRecords)
}

// TestRun_Cancellation aborts between records.
func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fn := func(ctx context.Context, input string) (string, error) {
		cancel() // cancel after the first record runs
		return "x", nil
	}

	_, err := Run(ctx, "qa", qaRecords(), fn, []Scorer{NonEmpty()})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestReport_Check passes and fails thresholds.
func TestReport_Check(t *testing.T) {
	report := &Report{
		Name: "qa",
		Averages: map[string]float64{
			ScorerExactMatch: 0.5,
			ScorerNonEmpty:   1.0,
		},
	}

	assert.NoError(t, report.Check(Thresholds{
		ScorerExactMatch: 0.4,
		ScorerNonEmpty:   1.0,
	}))

	err := report.Check(Thresholds{
		ScorerExactMatch: 0.8,
		ScorerNonEmpty:   1.0,
	})
	require.Error(t, err)

	var thErr *ThresholdError
	require.ErrorAs(t, err, &thErr)
	require.Len(t, thErr.Failures, 1)
	assert.Contains(t, thErr.Failures[0], ScorerExactMatch)
}

// TestReport_Check_MissingScorer counts unknown scorers as misses.
func TestReport_Check_MissingScorer(t *testing.T) {
	report := &Report{Averages: map[string]float64{}}

	err := report.Check(Thresholds{"ghost_scorer": 0.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost_scorer")
	assert.Contains(t, err.Error(), "no scores recorded")
}

// TestScorers covers the built-in scoring rules.
func TestScorers(t *testing.T) {
	rec := dataset.Record{Input: "q", ReferenceOutput: "Paris"}

	t.Run("exact match", func(t *testing.T) {
		s := ExactMatch()
		assert.Equal(t, 1.0, s.Score(rec, "Paris"))
		assert.Equal(t, 1.0, s.Score(rec, "  paris  "))
		assert.Equal(t, 0.0, s.Score(rec, "Paris, France"))
		assert.Equal(t, 0.0, s.Score(dataset.Record{}, "anything"))
	})

	t.Run("contains reference", func(t *testing.T) {
		s := ContainsReference()
		assert.Equal(t, 1.0, s.Score(rec, "The capital is PARIS."))
		assert.Equal(t, 0.0, s.Score(rec, "London"))
		assert.Equal(t, 0.0, s.Score(dataset.Record{}, "anything"))
	})

	t.Run("non empty", func(t *testing.T) {
		s := NonEmpty()
		assert.Equal(t, 1.0, s.Score(rec, "answer"))
		assert.Equal(t, 0.0, s.Score(rec, "   "))
	})

	t.Run("custom scorer", func(t *testing.T) {
		s := NewScorer("length_ok", func(r dataset.Record, out string) float64 {
			if len(out) < 100 {
				return 1
			}
			return 0
		})
		assert.Equal(t, "length_ok", s.Name())
		assert.Equal(t, 1.0, s.Score(rec, "short"))
	})
}
