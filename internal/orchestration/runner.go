// Package orchestration drives a batch of cases through the agent engine and
// records one run result per case.
package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/microsoft/keiko/internal/execution"
	"github.com/microsoft/keiko/internal/models"
	"github.com/microsoft/keiko/internal/results"
)

// DefaultTimeout bounds a single agent invocation unless overridden.
const DefaultTimeout = 90 * time.Second

// timeoutMarker is appended to the captured output when a case times out, so
// the artifact itself says why it stops mid-thought.
const timeoutMarker = "[TIMEOUT]"

// Runner executes cases against an engine and writes artifacts to a store.
type Runner struct {
	store   *results.Store
	engine  execution.AgentEngine
	timeout time.Duration
	modelID string
	workers int

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventBatchStart    EventType = "batch_start"
	EventBatchComplete EventType = "batch_complete"
	EventCaseStart     EventType = "case_start"
	EventCaseComplete  EventType = "case_complete"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType       EventType
	CaseID          string
	CaseNum         int
	TotalCases      int
	Status          models.RunStatus
	DurationSeconds float64
}

// Batch describes one runner invocation. StackFilter is recorded in the
// manifest only; filtering itself happens at load time.
type Batch struct {
	CasesFile   string
	StackFilter string
	Cases       []models.Case
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTimeout sets the per-case timeout.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithWorkers sets the number of concurrent cases. Anything below 2 keeps the
// batch sequential.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithModel sets the model requested from the engine. Can be blank.
func WithModel(modelID string) RunnerOption {
	return func(r *Runner) {
		r.modelID = modelID
	}
}

// NewRunner creates a runner writing artifacts to store.
func NewRunner(store *results.Store, engine execution.AgentEngine, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:     store,
		engine:    engine,
		timeout:   DefaultTimeout,
		listeners: []ProgressListener{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// OnProgress registers a progress listener
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Run executes every case in the batch, writes the three per-case artifacts
// plus one manifest, and returns the manifest. A failing case never aborts the
// batch; its failure is recorded in its own run result.
func (r *Runner) Run(ctx context.Context, batch Batch) (*models.Manifest, error) {
	startTime := time.Now()

	if len(batch.Cases) == 0 {
		return nil, fmt.Errorf("no cases to run")
	}

	if err := r.store.EnsureDir(); err != nil {
		return nil, err
	}

	if err := r.engine.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer func() {
		if err := r.engine.Shutdown(ctx); err != nil {
			slog.Warn("failed to shutdown engine", "error", err)
		}
	}()

	r.notifyProgress(ProgressEvent{
		EventType:  EventBatchStart,
		TotalCases: len(batch.Cases),
	})

	var runs []models.RunResult

	if r.workers > 1 {
		runs = r.runConcurrent(ctx, batch.Cases)
	} else {
		runs = r.runSequential(ctx, batch.Cases)
	}

	manifest := buildManifest(batch, runs)

	if err := r.store.WriteManifest(manifest); err != nil {
		return nil, err
	}

	r.notifyProgress(ProgressEvent{
		EventType:       EventBatchComplete,
		TotalCases:      len(batch.Cases),
		DurationSeconds: time.Since(startTime).Seconds(),
	})

	return manifest, nil
}

func (r *Runner) runSequential(ctx context.Context, cases []models.Case) []models.RunResult {
	runs := make([]models.RunResult, 0, len(cases))

	for i, c := range cases {
		r.notifyProgress(ProgressEvent{
			EventType:  EventCaseStart,
			CaseID:     c.ID,
			CaseNum:    i + 1,
			TotalCases: len(cases),
		})

		run := r.runCase(ctx, c)
		runs = append(runs, run)

		r.notifyProgress(ProgressEvent{
			EventType:       EventCaseComplete,
			CaseID:          c.ID,
			CaseNum:         i + 1,
			TotalCases:      len(cases),
			Status:          run.Status,
			DurationSeconds: run.DurationSeconds,
		})
	}

	return runs
}

func (r *Runner) runConcurrent(ctx context.Context, cases []models.Case) []models.RunResult {
	type result struct {
		index int
		run   models.RunResult
	}

	resultChan := make(chan result, len(cases))
	semaphore := make(chan struct{}, r.workers)

	var wg sync.WaitGroup

	for i, c := range cases {
		wg.Add(1)
		go func(idx int, c models.Case) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			r.notifyProgress(ProgressEvent{
				EventType:  EventCaseStart,
				CaseID:     c.ID,
				CaseNum:    idx + 1,
				TotalCases: len(cases),
			})

			run := r.runCase(ctx, c)
			resultChan <- result{index: idx, run: run}

			r.notifyProgress(ProgressEvent{
				EventType:       EventCaseComplete,
				CaseID:          c.ID,
				CaseNum:         idx + 1,
				TotalCases:      len(cases),
				Status:          run.Status,
				DurationSeconds: run.DurationSeconds,
			})
		}(i, c)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Collect results by index so artifact order never depends on completion order.
	runs := make([]models.RunResult, len(cases))
	for res := range resultChan {
		runs[res.index] = res.run
	}

	return runs
}

// runCase produces exactly one run result and attempts all three artifacts.
// Every failure path is recorded in the result instead of propagating.
func (r *Runner) runCase(ctx context.Context, c models.Case) models.RunResult {
	startTime := time.Now()

	run := models.RunResult{
		CaseID:           c.ID,
		Timestamp:        startTime.UTC(),
		Stack:            c.Stack,
		ExpectedBehavior: c.ExpectedBehavior,
		Rubric:           c.Rubric,
	}

	artifactsBroken := false

	if err := r.store.WritePrompt(c.ID, c.Prompt); err != nil {
		slog.Error("failed to write prompt artifact", "case", c.ID, "error", err)
		artifactsBroken = true
	}

	resp, err := r.engine.Execute(ctx, &execution.ExecutionRequest{
		CaseID:  c.ID,
		Prompt:  c.Prompt,
		ModelID: r.modelID,
		Timeout: r.timeout,
	})

	if err != nil {
		slog.Error("engine failed", "case", c.ID, "error", err)
		resp = &execution.ExecutionResponse{
			ExitCode: -1,
			ErrorMsg: err.Error(),
			Duration: time.Since(startTime),
		}
	}

	output := resp.Output
	if resp.TimedOut {
		if output != "" && !strings.HasSuffix(output, "\n") {
			output += "\n"
		}
		output += timeoutMarker + "\n"
	}

	if err := r.store.WriteOutput(c.ID, output); err != nil {
		slog.Error("failed to write output artifact", "case", c.ID, "error", err)
		artifactsBroken = true
	}

	switch {
	case resp.TimedOut:
		run.Status = models.RunTimeout
	case resp.ErrorMsg != "" || resp.ExitCode != 0 || artifactsBroken:
		run.Status = models.RunError
	default:
		run.Status = models.RunCompleted
	}

	run.ExitCode = resp.ExitCode
	run.DurationSeconds = resp.Duration.Seconds()

	if err := r.store.WriteMeta(&run); err != nil {
		slog.Error("failed to write meta artifact", "case", c.ID, "error", err)
		run.Status = models.RunError
	}

	return run
}

// buildManifest tallies run statuses with an explicit accumulator. The tally
// is a plain reduction, so it holds regardless of completion order.
func buildManifest(batch Batch, runs []models.RunResult) *models.Manifest {
	acc := struct {
		completed int
		errors    int
		timeouts  int
	}{}

	for _, run := range runs {
		switch run.Status {
		case models.RunCompleted:
			acc.completed++
		case models.RunError:
			acc.errors++
		case models.RunTimeout:
			acc.timeouts++
		}
	}

	return &models.Manifest{
		CasesFile:   batch.CasesFile,
		StackFilter: batch.StackFilter,
		TotalCases:  len(runs),
		Completed:   acc.completed,
		Errors:      acc.errors,
		Timeouts:    acc.timeouts,
		Timestamp:   time.Now().UTC(),
	}
}
