package models

import "time"

// RunStatus classifies the outcome of one agent invocation.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunTimeout   RunStatus = "timeout"
	RunError     RunStatus = "error"
)

// RunResult is the execution record for one case, persisted as <id>.meta.json.
// Stack, ExpectedBehavior and Rubric are denormalized from the case so the
// scorer never has to re-read the cases file.
type RunResult struct {
	CaseID string    `json:"id"`
	Status RunStatus `json:"status"`
	// DurationSeconds is wall-clock time for the agent invocation.
	DurationSeconds float64   `json:"duration_seconds"`
	ExitCode        int       `json:"exit_code"`
	Timestamp       time.Time `json:"timestamp"`

	Stack            string `json:"stack"`
	ExpectedBehavior string `json:"expected_behavior"`
	Rubric           string `json:"rubric"`
}

// Manifest summarizes one runner batch, persisted once as manifest.json.
// Errors counts error-status cases only; timeouts are tallied separately.
type Manifest struct {
	CasesFile   string    `json:"cases_file"`
	StackFilter string    `json:"stack_filter,omitempty"`
	TotalCases  int       `json:"total_cases"`
	Completed   int       `json:"completed"`
	Errors      int       `json:"errors"`
	Timeouts    int       `json:"timeouts"`
	Timestamp   time.Time `json:"timestamp"`
}
