package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/microsoft/keiko/internal/validation"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <cases-file>",
		Short: "Check a cases file against the case schema",
		Long: `Validate every line of a JSONL cases file without running anything.

Each line is checked against the case schema, so problems that the loader
would silently skip (bad JSON, missing IDs, wrong field types) are reported
with their line numbers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateCommandE(cmd, args[0])
		},
	}
}

func validateCommandE(cmd *cobra.Command, casesFile string) error {
	report, err := validation.ValidateCasesFile(casesFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if report.Valid() {
		fmt.Fprintf(out, "✓ %s: %d case line(s), all valid\n", casesFile, report.Checked) //nolint:errcheck
		return nil
	}

	for _, issue := range report.Issues {
		fmt.Fprintf(out, "line %d:\n", issue.Line) //nolint:errcheck
		for _, problem := range issue.Problems {
			fmt.Fprintf(out, "  - %s\n", problem) //nolint:errcheck
		}
	}

	return fmt.Errorf("%d of %d case line(s) invalid", len(report.Issues), report.Checked)
}
