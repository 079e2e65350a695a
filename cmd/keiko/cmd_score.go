package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/microsoft/keiko/internal/cache"
	"github.com/microsoft/keiko/internal/judge"
	"github.com/microsoft/keiko/internal/models"
	"github.com/microsoft/keiko/internal/projectconfig"
	"github.com/microsoft/keiko/internal/results"
	"github.com/microsoft/keiko/internal/scoring"
)

func newScoreCommand() *cobra.Command {
	var (
		judgeRaw      string
		judgeKind     string
		modelID       string
		timeoutSec    int
		workers       int
		enableCache   bool
		noCache       bool
		cacheDir      string
		transcriptDir string
	)

	cmd := &cobra.Command{
		Use:   "score <results-dir>",
		Short: "Score captured run results with an LLM judge",
		Long: `Judge every run result in the results directory and write one score record
per case.

Cases the judge cannot score (skipped runs, judge failures, unparsable
verdicts) get zero-filled records instead of being dropped, so the record
count always matches the run count. Flags override values from .keiko.yaml.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return scoreCommandE(cmd, args[0], judgeRaw, judgeKind, modelID, timeoutSec, workers, enableCache, noCache, cacheDir, transcriptDir)
		},
	}

	cmd.Flags().StringVar(&judgeRaw, "judge", "", "Judge command, split on spaces (e.g. \"my-judge --strict\")")
	cmd.Flags().StringVar(&judgeKind, "judge-kind", "", "Judge backend: cli, copilot, or mock (default: cli)")
	cmd.Flags().StringVar(&modelID, "model", "", "Model for the copilot judge")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 0, "Per-case judge timeout in seconds (default: 60)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent judge calls (default: 1)")
	cmd.Flags().BoolVar(&enableCache, "cache", false, "Cache judge responses")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable judge response caching")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Judge response cache directory (default: .keiko-cache)")
	cmd.Flags().StringVar(&transcriptDir, "transcript-dir", "", "Directory to save per-case judge transcripts")

	return cmd
}

func scoreCommandE(cmd *cobra.Command, resultsDir, judgeRaw, judgeKind, modelID string, timeoutSec, workers int, enableCache, noCache bool, cacheDir, transcriptDir string) error {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return err
	}

	judgeArgv := strings.Fields(judgeRaw)
	if len(judgeArgv) == 0 {
		judgeArgv = cfg.Judge.Command
	}

	kind := judge.Kind(firstNonEmpty(judgeKind, cfg.Judge.Kind))
	modelID = firstNonEmpty(modelID, cfg.Judge.Model)
	timeoutSec = firstPositive(timeoutSec, cfg.Judge.TimeoutSec)

	j, err := judge.New(kind, map[string]any{
		"command":         judgeArgv,
		"model":           modelID,
		"timeout_seconds": timeoutSec,
	})
	if err != nil {
		return fmt.Errorf("creating %s judge: %w", kind, err)
	}

	opts := []scoring.ScorerOption{
		scoring.WithWorkers(workers),
		scoring.WithJudgeIdentity(judgeIdentity(kind, modelID, judgeArgv)),
	}

	if cfg.Judge.Weights != nil {
		opts = append(opts, scoring.WithWeights(*cfg.Judge.Weights))
	}

	if transcriptDir != "" {
		opts = append(opts, scoring.WithTranscriptDir(transcriptDir))
	}

	useCache := enableCache || (cfg.Cache.Enabled != nil && *cfg.Cache.Enabled)
	if useCache && !noCache {
		absDir, err := filepath.Abs(firstNonEmpty(cacheDir, cfg.Cache.Dir))
		if err != nil {
			return fmt.Errorf("resolving cache directory: %w", err)
		}
		opts = append(opts, scoring.WithCache(cache.New(absDir)))
	}

	store := results.NewStore(resultsDir)
	scorer := scoring.NewScorer(store, j, opts...)

	records, err := scorer.ScoreAll(cmd.Context())
	if err != nil {
		return err
	}

	var completed, skipped, failed int
	var weighted []float64
	for _, rec := range records {
		switch rec.JudgeStatus {
		case models.JudgeCompleted:
			completed++
			weighted = append(weighted, rec.WeightedScore)
		case models.JudgeSkipped:
			skipped++
		default:
			failed++
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scored %d case(s): %d judged, %d skipped, %d judge failure(s)\n", len(records), completed, skipped, failed) //nolint:errcheck
	if completed > 0 {
		fmt.Fprintf(out, "Mean weighted score over judged cases: %.2f\n", models.Mean(weighted)) //nolint:errcheck
	}
	fmt.Fprintf(out, "Score records: %s\n", store.Dir()) //nolint:errcheck

	return nil
}

// judgeIdentity builds the cache identity for a judge configuration. Two
// differently configured judges must never share cache entries, so the
// identity covers everything that changes a verdict: kind, model, and argv.
func judgeIdentity(kind judge.Kind, modelID string, argv []string) string {
	parts := append([]string{string(kind), modelID}, argv...)
	return strings.TrimSpace(strings.Join(parts, " "))
}
