package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/microsoft/keiko/internal/models"
)

// Fixed column widths (display columns) for the console table.
const (
	colStack   = 12
	colScore   = 7
	maxCaseCol = 32
)

// WriteConsoleSummary prints the score table to w. Columns are padded by
// display width, not byte length, so wide characters in case ids or stacks
// do not break the alignment.
func WriteConsoleSummary(w io.Writer, s *Summary) {
	caseWidth := runewidth.StringWidth("Case")
	for _, rec := range s.Records {
		if cw := runewidth.StringWidth(rec.CaseID); cw > caseWidth {
			caseWidth = cw
		}
	}
	if caseWidth > maxCaseCol {
		caseWidth = maxCaseCol
	}

	totalWidth := caseWidth + colStack + colScore + len("Needs fixes") + 6 // 6 = 3 gaps × 2 spaces

	fmt.Fprintf(w, "%s\n", strings.Repeat("═", totalWidth))   //nolint:errcheck
	fmt.Fprintf(w, " SCORE SUMMARY\n")                        //nolint:errcheck
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("═", totalWidth)) //nolint:errcheck

	fmt.Fprintf(w, "%s  %s  %s  %s\n", //nolint:errcheck
		padRight("Case", caseWidth),
		padRight("Stack", colStack),
		padRight("Score", colScore),
		"Verdict")
	fmt.Fprintf(w, "%s\n", strings.Repeat("─", totalWidth)) //nolint:errcheck

	for _, rec := range s.Records {
		stack := s.StackFor(rec.CaseID)
		if stack == "" {
			stack = "-"
		}

		fmt.Fprintf(w, "%s  %s  %s  %s\n", //nolint:errcheck
			padRight(truncateName(rec.CaseID, caseWidth), caseWidth),
			padRight(truncateName(stack, colStack), colStack),
			padRight(fmt.Sprintf("%.2f", rec.WeightedScore), colScore),
			string(rec.Verdict))
	}

	fmt.Fprintf(w, "%s\n", strings.Repeat("─", totalWidth)) //nolint:errcheck
	fmt.Fprintf(w, "Mean %.2f σ=%.4f (%s): %d excellent, %d acceptable, %d needs fixes\n", //nolint:errcheck
		s.MeanWeighted, s.StdDevWeighted, s.OverallVerdict,
		s.Verdicts.Excellent, s.Verdicts.Acceptable, s.Verdicts.NeedsFixes)

	if n := len(s.Flagged); n > 0 {
		fmt.Fprintf(w, "%d case(s) scored below %.2f; see the flagged section of the report.\n", //nolint:errcheck
			n, models.AcceptableThreshold)
	}
}

// truncateName shortens a name to maxLen runes, replacing the last rune with "…" if needed.
func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
