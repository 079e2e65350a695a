package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/microsoft/keiko/internal/models"
)

// JUnit XML schema types, shaped for CI systems that ingest test reports.

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one scored batch.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one scored case.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure represents a case whose verdict fell below the bar.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents a case the judge could not score.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitSkipped marks a case whose run never completed, so judging was skipped.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit maps a summary onto JUnit XML, one testcase per score
// record. A record the judge could not score becomes an <error>, a record
// whose run never completed becomes <skipped>, and a completed record with a
// "Needs fixes" verdict becomes a <failure>. Everything else passes.
func ConvertToJUnit(s *Summary, suiteName string, generatedAt time.Time) *JUnitTestSuites {
	suite := JUnitTestSuite{
		Name:      suiteName,
		Tests:     s.TotalCases,
		Timestamp: generatedAt.UTC().Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "mean_weighted_score", Value: fmt.Sprintf("%.4f", s.MeanWeighted)},
			{Name: "overall_verdict", Value: string(s.OverallVerdict)},
			{Name: "flagged", Value: fmt.Sprintf("%d", len(s.Flagged))},
		},
	}

	var totalTime float64

	for _, rec := range s.Records {
		tc := convertRecord(s, rec)
		totalTime += tc.Time

		switch {
		case tc.Error != nil:
			suite.Errors++
		case tc.Skipped != nil:
			suite.Skipped++
		case tc.Failure != nil:
			suite.Failures++
		}

		suite.TestCases = append(suite.TestCases, tc)
	}
	suite.Time = totalTime

	return &JUnitTestSuites{
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Errors:     suite.Errors,
		Time:       totalTime,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func convertRecord(s *Summary, rec models.ScoreRecord) JUnitTestCase {
	classname := s.StackFor(rec.CaseID)
	if classname == "" {
		classname = "cases"
	}

	tc := JUnitTestCase{
		Name:      rec.CaseID,
		Classname: classname,
		Time:      s.DurationFor(rec.CaseID),
	}

	switch rec.JudgeStatus {
	case models.JudgeSkipped:
		tc.Skipped = &JUnitSkipped{Message: rec.Notes}
	case models.JudgeError, models.JudgeParseError:
		tc.Error = buildJudgeError(rec)
	default:
		if rec.Verdict == models.VerdictNeedsFixes {
			tc.Failure = &JUnitFailure{
				Message: fmt.Sprintf("%s: weighted score %.2f below %.2f",
					rec.CaseID, rec.WeightedScore, models.AcceptableThreshold),
				Type: "ScoreBelowThreshold",
				Body: formatDimensions(rec.Scores),
			}
		}
	}

	return tc
}

func buildJudgeError(rec models.ScoreRecord) *JUnitError {
	msg := rec.Notes
	if msg == "" {
		msg = "judge did not produce a verdict"
	}

	errType := "JudgeError"
	if rec.JudgeStatus == models.JudgeParseError {
		errType = "JudgeParseError"
	}

	return &JUnitError{
		Message: msg,
		Type:    errType,
		Body:    rec.RawResponse,
	}
}

// formatDimensions lists the per-dimension scores one per line for a failure
// body.
func formatDimensions(d models.DimensionScores) string {
	var b strings.Builder
	for _, row := range dimensionRows(d) {
		fmt.Fprintf(&b, "%s: %.2f\n", row.name, row.score)
	}
	return b.String()
}

// WriteJUnitXML writes the converted summary as JUnit XML to path.
func WriteJUnitXML(s *Summary, suiteName, path string, generatedAt time.Time) error {
	suites := ConvertToJUnit(s, suiteName, generatedAt)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
