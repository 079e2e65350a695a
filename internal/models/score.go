package models

// JudgeStatus describes how the judging phase ended for one case.
type JudgeStatus string

const (
	JudgeCompleted JudgeStatus = "completed"
	// JudgeSkipped means the run never completed, so the judge was not invoked.
	JudgeSkipped    JudgeStatus = "skipped"
	JudgeError      JudgeStatus = "error"
	JudgeParseError JudgeStatus = "parse_error"
)

// Verdict buckets a weighted score into a human-readable call.
type Verdict string

const (
	VerdictExcellent  Verdict = "Excellent"
	VerdictAcceptable Verdict = "Acceptable"
	VerdictNeedsFixes Verdict = "Needs fixes"
)

// Verdict boundaries. Both are inclusive lower bounds.
const (
	ExcellentThreshold  = 0.90
	AcceptableThreshold = 0.70
)

// VerdictForScore maps a weighted score onto a verdict. The scorer and the
// reporter share this so a record's verdict and the overall verdict can never
// disagree about where the boundaries sit.
func VerdictForScore(weighted float64) Verdict {
	switch {
	case weighted >= ExcellentThreshold:
		return VerdictExcellent
	case weighted >= AcceptableThreshold:
		return VerdictAcceptable
	default:
		return VerdictNeedsFixes
	}
}

// DimensionScores holds the five judge dimensions, each in [0, 1].
type DimensionScores struct {
	Correctness  float64 `json:"correctness"`
	CodeQuality  float64 `json:"code_quality"`
	Security     float64 `json:"security"`
	Performance  float64 `json:"performance"`
	TestCoverage float64 `json:"test_coverage"`
}

// Clamp returns a copy with every dimension forced into [0, 1].
func (s DimensionScores) Clamp() DimensionScores {
	return DimensionScores{
		Correctness:  clamp01(s.Correctness),
		CodeQuality:  clamp01(s.CodeQuality),
		Security:     clamp01(s.Security),
		Performance:  clamp01(s.Performance),
		TestCoverage: clamp01(s.TestCoverage),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Weights assigns each dimension's share of the composite score. A weight <= 0
// excludes that dimension; if every dimension is excluded the composite falls
// back to a simple average.
type Weights struct {
	Correctness  float64 `json:"correctness" yaml:"correctness" mapstructure:"correctness"`
	CodeQuality  float64 `json:"code_quality" yaml:"code_quality" mapstructure:"code_quality"`
	Security     float64 `json:"security" yaml:"security" mapstructure:"security"`
	Performance  float64 `json:"performance" yaml:"performance" mapstructure:"performance"`
	TestCoverage float64 `json:"test_coverage" yaml:"test_coverage" mapstructure:"test_coverage"`
}

// DefaultWeights returns the stock weighting: correctness dominates, test
// coverage matters least.
func DefaultWeights() Weights {
	return Weights{
		Correctness:  0.30,
		CodeQuality:  0.25,
		Security:     0.20,
		Performance:  0.15,
		TestCoverage: 0.10,
	}
}

// Weighted computes the composite score for s under w.
func (s DimensionScores) Weighted(w Weights) float64 {
	pairs := []struct{ score, weight float64 }{
		{s.Correctness, w.Correctness},
		{s.CodeQuality, w.CodeQuality},
		{s.Security, w.Security},
		{s.Performance, w.Performance},
		{s.TestCoverage, w.TestCoverage},
	}

	weightedSum := 0.0
	totalWeight := 0.0
	for _, p := range pairs {
		if p.weight <= 0 {
			continue
		}
		weightedSum += p.score * p.weight
		totalWeight += p.weight
	}

	if totalWeight == 0 {
		sum := 0.0
		for _, p := range pairs {
			sum += p.score
		}
		return sum / float64(len(pairs))
	}

	return weightedSum / totalWeight
}

// ScoreRecord is the judging outcome for one case, persisted as
// <id>.score.json. There is exactly one record per run result; judge failures
// zero-fill the scores rather than dropping the record.
type ScoreRecord struct {
	CaseID        string          `json:"case_id"`
	Scores        DimensionScores `json:"scores"`
	WeightedScore float64         `json:"weighted_score"`
	Verdict       Verdict         `json:"verdict"`
	Notes         string          `json:"notes"`
	JudgeStatus   JudgeStatus     `json:"judge_status"`
	// RawResponse retains the head of an unparsable judge reply for debugging.
	RawResponse string `json:"raw_response,omitempty"`
}
