package reporting

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/keiko/internal/models"
)

// newJUnitSummary exercises every testcase mapping. Summarize sorts records,
// so the testcase order is case-err, case-fail, case-pass, case-skip.
func newJUnitSummary() *Summary {
	errored := record("case-err", 0, models.JudgeError)
	errored.Notes = "judge invocation failed: boom"

	failed := record("case-fail", 0.40, models.JudgeCompleted)
	failed.Notes = "missed edge cases"

	passed := record("case-pass", 0.92, models.JudgeCompleted)

	skipped := record("case-skip", 0, models.JudgeSkipped)
	skipped.Notes = `run ended with status "timeout"; judging skipped`

	runs := []models.RunResult{
		meta("case-err", "python", 1.0),
		meta("case-fail", "go", 1.5),
		meta("case-pass", "go", 2.5),
	}
	runs = append(runs, models.RunResult{
		CaseID: "case-skip", Status: models.RunTimeout, Stack: "python", DurationSeconds: 90,
	})

	return Summarize([]models.ScoreRecord{errored, failed, passed, skipped}, runs)
}

func TestConvertToJUnit_Structure(t *testing.T) {
	suites := ConvertToJUnit(newJUnitSummary(), "nightly", time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, 4, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	assert.InDelta(t, 95.0, suites.Time, 0.01)

	require.Len(t, suites.TestSuites, 1)
	suite := suites.TestSuites[0]

	assert.Equal(t, "nightly", suite.Name)
	assert.Equal(t, 4, suite.Tests)
	assert.Equal(t, 1, suite.Failures)
	assert.Equal(t, 1, suite.Errors)
	assert.Equal(t, 1, suite.Skipped)
	assert.Equal(t, "2026-06-15T12:00:00Z", suite.Timestamp)
	require.Len(t, suite.TestCases, 4)
}

func TestConvertToJUnit_PassedCase(t *testing.T) {
	suites := ConvertToJUnit(newJUnitSummary(), "nightly", time.Now())
	tc := suites.TestSuites[0].TestCases[2]

	assert.Equal(t, "case-pass", tc.Name)
	assert.Equal(t, "go", tc.Classname)
	assert.InDelta(t, 2.5, tc.Time, 0.01)
	assert.Nil(t, tc.Failure)
	assert.Nil(t, tc.Error)
	assert.Nil(t, tc.Skipped)
}

func TestConvertToJUnit_FailedCase(t *testing.T) {
	suites := ConvertToJUnit(newJUnitSummary(), "nightly", time.Now())
	tc := suites.TestSuites[0].TestCases[1]

	assert.Equal(t, "case-fail", tc.Name)
	require.NotNil(t, tc.Failure)
	assert.Equal(t, "ScoreBelowThreshold", tc.Failure.Type)
	assert.Contains(t, tc.Failure.Message, "0.40")
	assert.Contains(t, tc.Failure.Body, "Correctness: 0.40")
	assert.Contains(t, tc.Failure.Body, "Test coverage: 0.40")
}

func TestConvertToJUnit_JudgeErrorCase(t *testing.T) {
	suites := ConvertToJUnit(newJUnitSummary(), "nightly", time.Now())
	tc := suites.TestSuites[0].TestCases[0]

	assert.Equal(t, "case-err", tc.Name)
	assert.Nil(t, tc.Failure)
	require.NotNil(t, tc.Error)
	assert.Equal(t, "JudgeError", tc.Error.Type)
	assert.Equal(t, "judge invocation failed: boom", tc.Error.Message)
}

func TestConvertToJUnit_ParseErrorCase(t *testing.T) {
	rec := record("garbled", 0, models.JudgeParseError)
	rec.Notes = "judge reply had no parseable JSON object"
	rec.RawResponse = "I think the answer is probably fine{"

	suites := ConvertToJUnit(Summarize([]models.ScoreRecord{rec}, nil), "nightly", time.Now())
	tc := suites.TestSuites[0].TestCases[0]

	require.NotNil(t, tc.Error)
	assert.Equal(t, "JudgeParseError", tc.Error.Type)
	assert.Contains(t, tc.Error.Body, "probably fine{")
}

func TestConvertToJUnit_SkippedCase(t *testing.T) {
	suites := ConvertToJUnit(newJUnitSummary(), "nightly", time.Now())
	tc := suites.TestSuites[0].TestCases[3]

	assert.Equal(t, "case-skip", tc.Name)
	assert.Nil(t, tc.Failure)
	assert.Nil(t, tc.Error)
	require.NotNil(t, tc.Skipped)
	assert.Contains(t, tc.Skipped.Message, "judging skipped")
}

func TestConvertToJUnit_Properties(t *testing.T) {
	suites := ConvertToJUnit(newJUnitSummary(), "nightly", time.Now())
	props := suites.TestSuites[0].Properties

	propMap := make(map[string]string)
	for _, p := range props {
		propMap[p.Name] = p.Value
	}

	// Mean of 0, 0.40, 0.92, 0 is 0.33.
	assert.Equal(t, "0.3300", propMap["mean_weighted_score"])
	assert.Equal(t, "Needs fixes", propMap["overall_verdict"])
	assert.Equal(t, "3", propMap["flagged"])
}

func TestConvertToJUnit_MissingMetaFallsBack(t *testing.T) {
	rec := record("no-meta", 0.95, models.JudgeCompleted)

	suites := ConvertToJUnit(Summarize([]models.ScoreRecord{rec}, nil), "nightly", time.Now())
	tc := suites.TestSuites[0].TestCases[0]

	assert.Equal(t, "cases", tc.Classname)
	assert.Zero(t, tc.Time)
}

func TestWriteJUnitXML_ValidXML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.xml")

	err := WriteJUnitXML(newJUnitSummary(), "nightly", path, time.Now())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))

	// Verify it parses back as valid XML.
	var parsed JUnitTestSuites
	err = xml.Unmarshal(data, &parsed)
	require.NoError(t, err)
	assert.Equal(t, 4, parsed.Tests)
	assert.Equal(t, 1, parsed.Failures)
	require.Len(t, parsed.TestSuites, 1)
	assert.Len(t, parsed.TestSuites[0].TestCases, 4)
}
