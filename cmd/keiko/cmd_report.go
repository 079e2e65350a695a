package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/microsoft/keiko/internal/reporting"
	"github.com/microsoft/keiko/internal/results"
)

func newReportCommand() *cobra.Command {
	var (
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "report <results-dir>",
		Short: "Generate a report from score records",
		Long: `Aggregate the score records in the results directory into a report.

The markdown format writes a timestamped report file and prints a console
summary. The junit format writes an XML file for CI ingestion, with one
test case per scored case.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reportCommandE(cmd, args[0], format, outPath)
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "Report format: markdown or junit")
	cmd.Flags().StringVar(&outPath, "out", "", "Report file path (default: inside the results directory)")

	return cmd
}

func reportCommandE(cmd *cobra.Command, resultsDir, format, outPath string) error {
	store := results.NewStore(resultsDir)

	records, err := store.ListScores()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no score records found in %s; run 'keiko score' first", store.Dir())
	}

	runs, err := store.ListResults()
	if err != nil {
		return err
	}

	summary := reporting.Summarize(records, runs)
	now := time.Now()
	out := cmd.OutOrStdout()

	switch format {
	case "markdown":
		path := outPath
		if path == "" {
			path, err = reporting.WriteMarkdown(summary, store.Dir(), now)
			if err != nil {
				return err
			}
		} else {
			content := reporting.RenderMarkdown(summary, now)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing report to %s: %w", path, err)
			}
		}
		fmt.Fprintf(out, "Report written to: %s\n\n", path) //nolint:errcheck
		reporting.WriteConsoleSummary(out, summary)
	case "junit":
		path := outPath
		if path == "" {
			path = filepath.Join(store.Dir(), "junit.xml")
		}
		if err := reporting.WriteJUnitXML(summary, suiteName(store), path, now); err != nil {
			return err
		}
		fmt.Fprintf(out, "JUnit report written to: %s\n", path) //nolint:errcheck
	default:
		return fmt.Errorf("unknown format %q (supported: markdown, junit)", format)
	}

	return nil
}

// suiteName derives the JUnit suite name from the manifest's cases file,
// falling back to "keiko" when no manifest was written.
func suiteName(store *results.Store) string {
	manifest, err := store.ReadManifest()
	if err != nil || manifest.CasesFile == "" {
		return "keiko"
	}
	base := filepath.Base(manifest.CasesFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
