package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/microsoft/keiko/internal/models"
)

// notesColWidth caps the notes column in the per-case table so one verbose
// judge reply cannot make the table unreadable. Flagged-case sections carry
// the full notes.
const notesColWidth = 80

// ReportFilename returns the report name for a generation time,
// e.g. report_20260615-143045.md.
func ReportFilename(ts time.Time) string {
	return fmt.Sprintf("report_%s.md", ts.Format("20060102-150405"))
}

// WriteMarkdown renders the report and writes it into dir under a timestamped
// name, returning the path written.
func WriteMarkdown(s *Summary, dir string, generatedAt time.Time) (string, error) {
	path := filepath.Join(dir, ReportFilename(generatedAt))

	if err := os.WriteFile(path, []byte(RenderMarkdown(s, generatedAt)), 0644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}

	return path, nil
}

// RenderMarkdown renders the full report as a markdown document. The
// generation timestamp is the only non-deterministic content: rendering the
// same summary twice differs in that single line.
func RenderMarkdown(s *Summary, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("# Evaluation Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	writeSummarySection(&b, s)
	writeCaseTable(&b, s)
	writeDimensionTable(&b, s)
	writeStackTable(&b, s)
	writeFlaggedSections(&b, s)

	return b.String()
}

func writeSummarySection(b *strings.Builder, s *Summary) {
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(b, "| Cases scored | %d |\n", s.TotalCases)
	fmt.Fprintf(b, "| Mean weighted score | %.2f |\n", s.MeanWeighted)
	fmt.Fprintf(b, "| Score range | %.2f - %.2f (σ=%.4f) |\n", s.MinWeighted, s.MaxWeighted, s.StdDevWeighted)
	fmt.Fprintf(b, "| Overall verdict | %s |\n", s.OverallVerdict)
	fmt.Fprintf(b, "| Excellent | %d |\n", s.Verdicts.Excellent)
	fmt.Fprintf(b, "| Acceptable | %d |\n", s.Verdicts.Acceptable)
	fmt.Fprintf(b, "| Needs fixes | %d |\n", s.Verdicts.NeedsFixes)
	b.WriteString("\n")
}

func writeCaseTable(b *strings.Builder, s *Summary) {
	b.WriteString("## Cases\n\n")
	b.WriteString("| Case | Stack | Score | Verdict | Notes |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")

	for _, rec := range s.Records {
		fmt.Fprintf(b, "| %s | %s | %.2f | %s | %s |\n",
			tableCell(rec.CaseID, 40),
			stackLabel(s.StackFor(rec.CaseID)),
			rec.WeightedScore,
			rec.Verdict,
			tableCell(rec.Notes, notesColWidth))
	}
	b.WriteString("\n")
}

func writeDimensionTable(b *strings.Builder, s *Summary) {
	b.WriteString("## Dimension averages\n\n")
	b.WriteString("| Dimension | Mean |\n")
	b.WriteString("| --- | --- |\n")

	for _, row := range dimensionRows(s.DimensionMeans) {
		fmt.Fprintf(b, "| %s | %.2f |\n", row.name, row.score)
	}
	b.WriteString("\n")
}

func writeStackTable(b *strings.Builder, s *Summary) {
	if len(s.Stacks) == 0 {
		return
	}

	b.WriteString("## Mean score by stack\n\n")
	b.WriteString("| Stack | Cases | Mean score |\n")
	b.WriteString("| --- | --- | --- |\n")

	for _, st := range s.Stacks {
		fmt.Fprintf(b, "| %s | %d | %.2f |\n", stackLabel(st.Stack), st.Cases, st.MeanWeighted)
	}
	b.WriteString("\n")
}

func writeFlaggedSections(b *strings.Builder, s *Summary) {
	if len(s.Flagged) == 0 {
		return
	}

	b.WriteString("## Flagged cases\n\n")
	fmt.Fprintf(b, "%d case(s) scored below %.2f.\n\n", len(s.Flagged), models.AcceptableThreshold)

	for _, rec := range s.Flagged {
		fmt.Fprintf(b, "### %s\n\n", rec.CaseID)
		fmt.Fprintf(b, "Weighted score %.2f (%s), judge status `%s`.\n\n",
			rec.WeightedScore, rec.Verdict, rec.JudgeStatus)

		b.WriteString("| Dimension | Score |\n")
		b.WriteString("| --- | --- |\n")
		for _, row := range dimensionRows(rec.Scores) {
			fmt.Fprintf(b, "| %s | %.2f |\n", row.name, row.score)
		}
		b.WriteString("\n")

		if notes := strings.TrimSpace(rec.Notes); notes != "" {
			fmt.Fprintf(b, "Notes: %s\n\n", notes)
		}
	}
}

func stackLabel(stack string) string {
	if stack == "" {
		return "-"
	}
	return stack
}

// tableCell makes s safe for a one-line markdown table cell: whitespace runs
// (newlines included) collapse to single spaces, anything longer than max
// runes is cut with a trailing ellipsis, and pipes are escaped last so the
// cell can never terminate its row early.
func tableCell(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")

	if runes := []rune(s); len(runes) > max {
		s = string(runes[:max-1]) + "…"
	}

	return strings.ReplaceAll(s, "|", "\\|")
}
