package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/keiko/internal/models"
)

func record(id string, weighted float64, status models.JudgeStatus) models.ScoreRecord {
	return models.ScoreRecord{
		CaseID: id,
		Scores: models.DimensionScores{
			Correctness:  weighted,
			CodeQuality:  weighted,
			Security:     weighted,
			Performance:  weighted,
			TestCoverage: weighted,
		},
		WeightedScore: weighted,
		Verdict:       models.VerdictForScore(weighted),
		JudgeStatus:   status,
	}
}

func meta(id, stack string, seconds float64) models.RunResult {
	return models.RunResult{
		CaseID:          id,
		Status:          models.RunCompleted,
		Stack:           stack,
		DurationSeconds: seconds,
	}
}

func TestSummarize_Aggregates(t *testing.T) {
	records := []models.ScoreRecord{
		record("a", 0.90, models.JudgeCompleted),
		record("b", 0.80, models.JudgeCompleted),
		record("c", 0.10, models.JudgeCompleted),
	}

	s := Summarize(records, nil)

	assert.Equal(t, 3, s.TotalCases)
	assert.InDelta(t, 0.60, s.MeanWeighted, 0.001)
	assert.InDelta(t, 0.10, s.MinWeighted, 0.001)
	assert.InDelta(t, 0.90, s.MaxWeighted, 0.001)
	assert.InDelta(t, 0.3559, s.StdDevWeighted, 0.0001)
	assert.Equal(t, models.VerdictNeedsFixes, s.OverallVerdict)

	assert.Equal(t, 1, s.Verdicts.Excellent)
	assert.Equal(t, 1, s.Verdicts.Acceptable)
	assert.Equal(t, 1, s.Verdicts.NeedsFixes)

	assert.InDelta(t, 0.60, s.DimensionMeans.Correctness, 0.001)
	assert.InDelta(t, 0.60, s.DimensionMeans.TestCoverage, 0.001)

	require.Len(t, s.Flagged, 1)
	assert.Equal(t, "c", s.Flagged[0].CaseID)
}

func TestSummarize_SortsByCaseID(t *testing.T) {
	records := []models.ScoreRecord{
		record("charlie", 0.5, models.JudgeCompleted),
		record("alpha", 0.5, models.JudgeCompleted),
		record("bravo", 0.5, models.JudgeCompleted),
	}

	s := Summarize(records, nil)

	require.Len(t, s.Records, 3)
	assert.Equal(t, "alpha", s.Records[0].CaseID)
	assert.Equal(t, "bravo", s.Records[1].CaseID)
	assert.Equal(t, "charlie", s.Records[2].CaseID)
}

func TestSummarize_FlaggedIsStrictlyBelowThreshold(t *testing.T) {
	records := []models.ScoreRecord{
		record("at-bar", 0.70, models.JudgeCompleted),
		record("below-bar", 0.69, models.JudgeCompleted),
	}

	s := Summarize(records, nil)

	require.Len(t, s.Flagged, 1)
	assert.Equal(t, "below-bar", s.Flagged[0].CaseID)
}

func TestSummarize_StackJoin(t *testing.T) {
	records := []models.ScoreRecord{
		record("a", 0.9, models.JudgeCompleted),
		record("orphan", 0.8, models.JudgeCompleted),
	}
	runs := []models.RunResult{
		meta("a", "go", 2.5),
		meta("unscored", "python", 1.0), // meta without a score record
	}

	s := Summarize(records, runs)

	assert.Equal(t, "go", s.StackFor("a"))
	assert.Equal(t, "", s.StackFor("orphan"))
	assert.InDelta(t, 2.5, s.DurationFor("a"), 0.001)
	assert.Zero(t, s.DurationFor("orphan"))
}

func TestSummarize_StackMeans(t *testing.T) {
	t.Run("two stacks produce sorted per-stack means", func(t *testing.T) {
		records := []models.ScoreRecord{
			record("go-1", 0.9, models.JudgeCompleted),
			record("go-2", 0.7, models.JudgeCompleted),
			record("py-1", 0.5, models.JudgeCompleted),
		}
		runs := []models.RunResult{
			meta("go-1", "go", 1),
			meta("go-2", "go", 1),
			meta("py-1", "python", 1),
		}

		s := Summarize(records, runs)

		require.Len(t, s.Stacks, 2)
		assert.Equal(t, "go", s.Stacks[0].Stack)
		assert.Equal(t, 2, s.Stacks[0].Cases)
		assert.InDelta(t, 0.80, s.Stacks[0].MeanWeighted, 0.001)
		assert.Equal(t, "python", s.Stacks[1].Stack)
		assert.Equal(t, 1, s.Stacks[1].Cases)
		assert.InDelta(t, 0.50, s.Stacks[1].MeanWeighted, 0.001)
	})

	t.Run("single stack is not worth a table", func(t *testing.T) {
		records := []models.ScoreRecord{
			record("a", 0.9, models.JudgeCompleted),
			record("b", 0.7, models.JudgeCompleted),
		}
		runs := []models.RunResult{
			meta("a", "go", 1),
			meta("b", "go", 1),
		}

		s := Summarize(records, runs)
		assert.Empty(t, s.Stacks)
	})

	t.Run("no metas means no stack table", func(t *testing.T) {
		records := []models.ScoreRecord{
			record("a", 0.9, models.JudgeCompleted),
			record("b", 0.7, models.JudgeCompleted),
		}

		s := Summarize(records, nil)
		assert.Empty(t, s.Stacks)
	})

	t.Run("records without metas stay out of the grouping", func(t *testing.T) {
		records := []models.ScoreRecord{
			record("go-1", 0.9, models.JudgeCompleted),
			record("py-1", 0.5, models.JudgeCompleted),
			record("orphan", 0.1, models.JudgeCompleted),
		}
		runs := []models.RunResult{
			meta("go-1", "go", 1),
			meta("py-1", "python", 1),
		}

		s := Summarize(records, runs)

		require.Len(t, s.Stacks, 2)
		assert.Equal(t, 1, s.Stacks[0].Cases)
		assert.Equal(t, 1, s.Stacks[1].Cases)
	})
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, nil)

	assert.Zero(t, s.TotalCases)
	assert.Zero(t, s.MeanWeighted)
	assert.Zero(t, s.MinWeighted)
	assert.Zero(t, s.MaxWeighted)
	assert.Zero(t, s.StdDevWeighted)
	assert.Equal(t, models.VerdictNeedsFixes, s.OverallVerdict)
	assert.Empty(t, s.Flagged)
	assert.Empty(t, s.Stacks)
	assert.Zero(t, s.DimensionMeans)
}

func TestSummarize_ZeroFilledRecordsCountAsNeedsFixes(t *testing.T) {
	records := []models.ScoreRecord{
		record("good", 0.95, models.JudgeCompleted),
		record("errored", 0, models.JudgeError),
		record("skipped", 0, models.JudgeSkipped),
	}

	s := Summarize(records, nil)

	assert.Equal(t, 1, s.Verdicts.Excellent)
	assert.Equal(t, 2, s.Verdicts.NeedsFixes)
	assert.Len(t, s.Flagged, 2)
}
