package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/microsoft/keiko/internal/cases"
	"github.com/microsoft/keiko/internal/execution"
	"github.com/microsoft/keiko/internal/models"
	"github.com/microsoft/keiko/internal/orchestration"
	"github.com/microsoft/keiko/internal/projectconfig"
	"github.com/microsoft/keiko/internal/results"
)

func newRunCommand() *cobra.Command {
	var (
		stackFilter string
		maxCases    int
		timeoutSec  int
		outDir      string
		agentRaw    string
		engineName  string
		modelID     string
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "run <cases-file>",
		Short: "Run evaluation cases against an agent",
		Long: `Run every case in a line-delimited JSON cases file against the agent and
capture per-case artifacts in the results directory.

A failing case never aborts the batch: timeouts and agent errors are recorded
in that case's own run result and the batch moves on. Flags override values
from .keiko.yaml, which overrides built-in defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommandE(cmd, args[0], stackFilter, maxCases, timeoutSec, outDir, agentRaw, engineName, modelID, workers)
		},
	}

	cmd.Flags().StringVar(&stackFilter, "stack", "", "Keep only cases whose stack matches exactly")
	cmd.Flags().IntVar(&maxCases, "max", 0, "Cap the number of cases run (0 = no cap)")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 0, "Per-case timeout in seconds (default: 90)")
	cmd.Flags().StringVar(&outDir, "out", "", "Results directory (default: results/)")
	cmd.Flags().StringVar(&agentRaw, "agent", "", "Agent command, split on spaces (e.g. \"my-agent --headless\")")
	cmd.Flags().StringVar(&engineName, "engine", "", "Agent engine: cli or copilot (default: cli)")
	cmd.Flags().StringVar(&modelID, "model", "", "Model requested from the engine")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent cases (default: 1)")

	return cmd
}

func runCommandE(cmd *cobra.Command, casesFile, stackFilter string, maxCases, timeoutSec int, outDir, agentRaw, engineName, modelID string, workers int) error {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return err
	}

	agentArgv := strings.Fields(agentRaw)
	if len(agentArgv) == 0 {
		agentArgv = cfg.Agent.Command
	}

	engineName = firstNonEmpty(engineName, cfg.Agent.Engine)
	modelID = firstNonEmpty(modelID, cfg.Agent.Model)
	timeoutSec = firstPositive(timeoutSec, cfg.Agent.TimeoutSec)
	workers = firstPositive(workers, cfg.Agent.Workers)
	outDir = firstNonEmpty(outDir, cfg.Paths.Results)

	loaded, stats, err := cases.Load(casesFile,
		cases.WithStackFilter(stackFilter),
		cases.WithMaxCases(maxCases),
	)
	if err != nil {
		return err
	}

	if len(loaded) == 0 {
		return fmt.Errorf("no cases selected from %s (%d line(s) read, %d filtered out)", casesFile, stats.TotalLines, stats.FilteredOut)
	}

	engine, err := buildEngine(engineName, agentArgv, modelID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	var header strings.Builder
	fmt.Fprintf(&header, "Cases:  %d selected from %s", len(loaded), casesFile)
	if skipped := stats.SkippedBadJSON + stats.SkippedNoID; skipped > 0 {
		fmt.Fprintf(&header, " (%d bad line(s) skipped)", skipped)
	}
	if stats.FilteredOut > 0 {
		fmt.Fprintf(&header, " (%d filtered out)", stats.FilteredOut)
	}
	fmt.Fprintf(&header, "\nEngine: %s\n", engineName)
	if engineName == "cli" {
		fmt.Fprintf(&header, "Agent:  %s\n", strings.Join(agentArgv, " "))
	}
	if modelID != "" {
		fmt.Fprintf(&header, "Model:  %s\n", modelID)
	}

	fmt.Fprintln(out, header.String()) //nolint:errcheck

	store := results.NewStore(outDir)
	runner := orchestration.NewRunner(store, engine,
		orchestration.WithTimeout(time.Duration(timeoutSec)*time.Second),
		orchestration.WithWorkers(workers),
		orchestration.WithModel(modelID),
	)
	runner.OnProgress(newProgressPrinter(out))

	manifest, err := runner.Run(cmd.Context(), orchestration.Batch{
		CasesFile:   casesFile,
		StackFilter: stackFilter,
		Cases:       loaded,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nRun complete: %d completed, %d error(s), %d timeout(s)\n", manifest.Completed, manifest.Errors, manifest.Timeouts) //nolint:errcheck
	fmt.Fprintf(out, "Results: %s\n", store.Dir())                                                                                        //nolint:errcheck

	return nil
}

// buildEngine creates the agent engine for a run. The cli engine needs an
// agent command from the flag or .keiko.yaml; the copilot engine needs
// nothing beyond an optional model.
func buildEngine(engineName string, agentArgv []string, modelID string) (execution.AgentEngine, error) {
	switch engineName {
	case "cli":
		if len(agentArgv) == 0 {
			return nil, fmt.Errorf("agent command is required (--agent or agent.command in %s)", projectconfig.FileName)
		}
		return execution.NewCLIEngine(agentArgv)
	case "copilot":
		return execution.NewCopilotEngineBuilder(modelID, nil).Build(), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (supported: cli, copilot)", engineName)
	}
}

// newProgressPrinter returns a listener that prints one line per finished
// case to w. With workers, lines land in completion order.
func newProgressPrinter(w io.Writer) orchestration.ProgressListener {
	return func(event orchestration.ProgressEvent) {
		switch event.EventType {
		case orchestration.EventCaseComplete:
			icon := "✓"
			if event.Status != models.RunCompleted {
				icon = "✗"
			}
			fmt.Fprintf(w, "%s [%d/%d] %s (%s, %.1fs)\n", icon, event.CaseNum, event.TotalCases, event.CaseID, event.Status, event.DurationSeconds) //nolint:errcheck
		case orchestration.EventBatchComplete:
			fmt.Fprintf(w, "Batch finished in %.1fs\n", event.DurationSeconds) //nolint:errcheck
		}
	}
}

// firstNonEmpty returns flag when set, otherwise the config fallback.
func firstNonEmpty(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}

// firstPositive returns flag when positive, otherwise the config fallback.
func firstPositive(flag, fallback int) int {
	if flag > 0 {
		return flag
	}
	return fallback
}
