// Package scoring turns run results into score records. Every run result in
// the store gets exactly one record; judge failures zero-fill instead of
// dropping a case.
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/microsoft/keiko/internal/cache"
	"github.com/microsoft/keiko/internal/judge"
	"github.com/microsoft/keiko/internal/models"
	"github.com/microsoft/keiko/internal/results"
	"github.com/microsoft/keiko/internal/transcript"
	"golang.org/x/sync/errgroup"
)

// maxRawResponseLen bounds how much of an unparsable judge reply a score
// record retains. Full replies go to transcripts, not records.
const maxRawResponseLen = 500

// Scorer judges completed runs from a results store.
type Scorer struct {
	store   *results.Store
	judge   judge.Judge
	weights models.Weights

	// judgeID keys the response cache. Defaults to the judge's name; callers
	// that know more (model, argv) should pass a fuller identity so two
	// differently configured judges never share cache entries.
	judgeID string

	cache         *cache.Cache
	transcriptDir string
	workers       int
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithWeights overrides the default dimension weights.
func WithWeights(w models.Weights) ScorerOption {
	return func(s *Scorer) {
		s.weights = w
	}
}

// WithCache enables judge response caching.
func WithCache(c *cache.Cache) ScorerOption {
	return func(s *Scorer) {
		s.cache = c
	}
}

// WithJudgeIdentity sets the cache identity for the judge.
func WithJudgeIdentity(id string) ScorerOption {
	return func(s *Scorer) {
		if id != "" {
			s.judgeID = id
		}
	}
}

// WithTranscriptDir saves every fresh judge exchange under dir.
func WithTranscriptDir(dir string) ScorerOption {
	return func(s *Scorer) {
		s.transcriptDir = dir
	}
}

// WithWorkers sets the number of concurrent judge calls. Anything below 2
// keeps scoring sequential.
func WithWorkers(n int) ScorerOption {
	return func(s *Scorer) {
		s.workers = n
	}
}

// NewScorer creates a scorer reading artifacts from store and judging with j.
func NewScorer(store *results.Store, j judge.Judge, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		store:   store,
		judge:   j,
		weights: models.DefaultWeights(),
		judgeID: j.Name(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ScoreAll scores every run result in the store, writing <id>.score.json per
// result as it goes, and returns the records in case-id order.
func (s *Scorer) ScoreAll(ctx context.Context) ([]models.ScoreRecord, error) {
	runs, err := s.store.ListResults()
	if err != nil {
		return nil, err
	}

	if len(runs) == 0 {
		return nil, fmt.Errorf("no run results found in %s", s.store.Dir())
	}

	if err := s.judge.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize judge: %w", err)
	}
	defer func() {
		if err := s.judge.Shutdown(ctx); err != nil {
			slog.Warn("failed to shutdown judge", "error", err)
		}
	}()

	records := make([]models.ScoreRecord, len(runs))

	if s.workers > 1 {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(s.workers)

		for i, run := range runs {
			group.Go(func() error {
				return s.scoreAndWrite(groupCtx, run, &records[i])
			})
		}

		if err := group.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, run := range runs {
			if err := s.scoreAndWrite(ctx, run, &records[i]); err != nil {
				return nil, err
			}
		}
	}

	return records, nil
}

// scoreAndWrite persists each record the moment it exists, so a crash midway
// through an expensive judge batch loses nothing already judged. Only a store
// write failure propagates; judge trouble is captured in the record itself.
func (s *Scorer) scoreAndWrite(ctx context.Context, run models.RunResult, out *models.ScoreRecord) error {
	rec := s.scoreRun(ctx, run)

	if err := s.store.WriteScore(&rec); err != nil {
		return fmt.Errorf("failed to write score record for %q: %w", rec.CaseID, err)
	}

	*out = rec
	return nil
}

func (s *Scorer) scoreRun(ctx context.Context, run models.RunResult) models.ScoreRecord {
	rec := models.ScoreRecord{
		CaseID:      run.CaseID,
		JudgeStatus: models.JudgeCompleted,
	}

	if run.Status != models.RunCompleted {
		return zeroFill(rec, models.JudgeSkipped, fmt.Sprintf("run ended with status %q; judging skipped", run.Status))
	}

	prompt, err := s.store.ReadPrompt(run.CaseID)
	if err != nil {
		return zeroFill(rec, models.JudgeError, fmt.Sprintf("prompt artifact unavailable: %v", err))
	}

	output, err := s.store.ReadOutput(run.CaseID)
	if err != nil {
		return zeroFill(rec, models.JudgeError, fmt.Sprintf("output artifact unavailable: %v", err))
	}

	judgePrompt := judge.BuildPrompt(prompt, output, run.ExpectedBehavior, run.Rubric)

	raw, err := s.judgeResponse(ctx, run.CaseID, judgePrompt)
	if err != nil {
		slog.Error("judge failed", "case", run.CaseID, "error", err)
		return zeroFill(rec, models.JudgeError, err.Error())
	}

	payload, err := judge.ParsePayload(raw)
	if err != nil {
		rec = zeroFill(rec, models.JudgeParseError, "judge reply had no parseable JSON object")
		rec.RawResponse = truncate(raw, maxRawResponseLen)
		return rec
	}

	// The judge's own weighted_score and verdict claims are ignored; both get
	// recomputed from the clamped dimensions so arithmetic stays ours.
	rec.Scores = payload.Scores.Clamp()
	rec.WeightedScore = rec.Scores.Weighted(s.weights)
	rec.Verdict = models.VerdictForScore(rec.WeightedScore)
	rec.Notes = payload.Notes

	return rec
}

// judgeResponse returns the raw judge reply for a prompt, consulting the
// cache first. Extraction always runs on the way out, so cached and fresh
// responses flow through identical parsing.
func (s *Scorer) judgeResponse(ctx context.Context, caseID, judgePrompt string) (string, error) {
	key := cache.Key(s.judgeID, judgePrompt)

	if s.cache != nil {
		if raw, ok := s.cache.Get(key); ok {
			slog.Debug("judge cache hit", "case", caseID)
			return raw, nil
		}
	}

	start := time.Now()

	raw, err := s.judge.Evaluate(ctx, caseID, judgePrompt)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Put(key, raw); err != nil {
			slog.Warn("failed to cache judge response", "case", caseID, "error", err)
		}
	}

	if s.transcriptDir != "" {
		if _, err := transcript.Write(s.transcriptDir, &transcript.Transcript{
			CaseID:     caseID,
			Judge:      s.judge.Name(),
			Prompt:     judgePrompt,
			Response:   raw,
			StartedAt:  start.UTC(),
			DurationMs: time.Since(start).Milliseconds(),
		}); err != nil {
			slog.Warn("failed to write judge transcript", "case", caseID, "error", err)
		}
	}

	return raw, nil
}

// zeroFill marks a record as unjudgeable: dimensions and weighted score stay
// zero, and a zero weighted score always reads as Needs fixes.
func zeroFill(rec models.ScoreRecord, status models.JudgeStatus, notes string) models.ScoreRecord {
	rec.JudgeStatus = status
	rec.Verdict = models.VerdictNeedsFixes
	rec.Notes = notes
	return rec
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
