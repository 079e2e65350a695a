// Package reporting aggregates the score records in a results directory and
// renders them as a markdown report, JUnit XML, or a console summary table.
// Aggregation happens once in Summarize; every renderer works from the same
// Summary so the numbers can never disagree between formats.
package reporting

import (
	"sort"

	"github.com/microsoft/keiko/internal/models"
)

// VerdictCounts tallies score records by verdict bucket.
type VerdictCounts struct {
	Excellent  int
	Acceptable int
	NeedsFixes int
}

// StackSummary aggregates the records that ran on one stack.
type StackSummary struct {
	Stack        string
	Cases        int
	MeanWeighted float64
}

// Summary is everything the renderers need, computed once from the score
// records. Run metas, when supplied, contribute the stack and duration for
// each case; a record whose meta is missing simply has no stack.
type Summary struct {
	// Records holds every score record, sorted by case id.
	Records        []models.ScoreRecord
	TotalCases     int
	MeanWeighted   float64
	MinWeighted    float64
	MaxWeighted    float64
	StdDevWeighted float64
	OverallVerdict models.Verdict
	DimensionMeans models.DimensionScores
	Verdicts       VerdictCounts

	// Flagged holds the records whose weighted score is strictly below the
	// acceptable threshold, in case id order.
	Flagged []models.ScoreRecord

	// Stacks holds per-stack means sorted by stack name. Populated only when
	// the joined metas reveal more than one distinct stack.
	Stacks []StackSummary

	stackByCase    map[string]string
	durationByCase map[string]float64
}

// Summarize joins records with their run metas and computes the aggregates.
// Metas without a matching score record are tolerated and ignored.
func Summarize(records []models.ScoreRecord, runs []models.RunResult) *Summary {
	s := &Summary{
		Records:        make([]models.ScoreRecord, len(records)),
		TotalCases:     len(records),
		stackByCase:    make(map[string]string, len(runs)),
		durationByCase: make(map[string]float64, len(runs)),
	}

	copy(s.Records, records)
	sort.Slice(s.Records, func(i, j int) bool {
		return s.Records[i].CaseID < s.Records[j].CaseID
	})

	for _, run := range runs {
		s.stackByCase[run.CaseID] = run.Stack
		s.durationByCase[run.CaseID] = run.DurationSeconds
	}

	weighted := make([]float64, 0, len(s.Records))
	minScore := 1.0
	maxScore := 0.0
	var sums models.DimensionScores

	for _, rec := range s.Records {
		weighted = append(weighted, rec.WeightedScore)
		if rec.WeightedScore < minScore {
			minScore = rec.WeightedScore
		}
		if rec.WeightedScore > maxScore {
			maxScore = rec.WeightedScore
		}

		sums.Correctness += rec.Scores.Correctness
		sums.CodeQuality += rec.Scores.CodeQuality
		sums.Security += rec.Scores.Security
		sums.Performance += rec.Scores.Performance
		sums.TestCoverage += rec.Scores.TestCoverage

		switch rec.Verdict {
		case models.VerdictExcellent:
			s.Verdicts.Excellent++
		case models.VerdictAcceptable:
			s.Verdicts.Acceptable++
		default:
			s.Verdicts.NeedsFixes++
		}

		if rec.WeightedScore < models.AcceptableThreshold {
			s.Flagged = append(s.Flagged, rec)
		}
	}

	s.MeanWeighted = models.Mean(weighted)
	s.StdDevWeighted = models.ComputeStdDev(weighted)
	s.OverallVerdict = models.VerdictForScore(s.MeanWeighted)

	if len(s.Records) > 0 {
		s.MinWeighted = minScore
		s.MaxWeighted = maxScore
	}

	if n := float64(len(s.Records)); n > 0 {
		s.DimensionMeans = models.DimensionScores{
			Correctness:  sums.Correctness / n,
			CodeQuality:  sums.CodeQuality / n,
			Security:     sums.Security / n,
			Performance:  sums.Performance / n,
			TestCoverage: sums.TestCoverage / n,
		}
	}

	s.Stacks = stackMeans(s.Records, s.stackByCase)

	return s
}

// StackFor returns the stack recorded in a case's run meta, or "" when no
// meta was found for that case.
func (s *Summary) StackFor(caseID string) string {
	return s.stackByCase[caseID]
}

// DurationFor returns the agent wall-clock seconds recorded for a case, or 0
// when no meta was found for it.
func (s *Summary) DurationFor(caseID string) float64 {
	return s.durationByCase[caseID]
}

// stackMeans groups records by stack. Records without a meta carry no stack
// information and are left out of the grouping. A single stack is not worth a
// table, so the result is nil unless at least two distinct stacks appear.
func stackMeans(records []models.ScoreRecord, stackByCase map[string]string) []StackSummary {
	byStack := make(map[string][]float64)

	for _, rec := range records {
		stack, ok := stackByCase[rec.CaseID]
		if !ok {
			continue
		}
		byStack[stack] = append(byStack[stack], rec.WeightedScore)
	}

	if len(byStack) < 2 {
		return nil
	}

	stacks := make([]StackSummary, 0, len(byStack))
	for stack, scores := range byStack {
		stacks = append(stacks, StackSummary{
			Stack:        stack,
			Cases:        len(scores),
			MeanWeighted: models.Mean(scores),
		})
	}
	sort.Slice(stacks, func(i, j int) bool { return stacks[i].Stack < stacks[j].Stack })

	return stacks
}

type dimensionRow struct {
	name  string
	score float64
}

// dimensionRows returns the five dimensions with display names, in the fixed
// order every renderer uses.
func dimensionRows(d models.DimensionScores) []dimensionRow {
	return []dimensionRow{
		{"Correctness", d.Correctness},
		{"Code quality", d.CodeQuality},
		{"Security", d.Security},
		{"Performance", d.Performance},
		{"Test coverage", d.TestCoverage},
	}
}
