// Package execution runs case prompts against an agent backend.
package execution

import (
	"context"
	"time"
)

// AgentEngine abstracts the agent backend that produces output for a case.
type AgentEngine interface {
	// Initialize prepares the engine before the first Execute call.
	Initialize(ctx context.Context) error

	// Execute runs a single case prompt. Per-invocation failures (timeouts,
	// non-zero exits, session errors) come back in the response rather than
	// as an error; an error return means the engine itself is unusable.
	Execute(ctx context.Context, req *ExecutionRequest) (*ExecutionResponse, error)

	// Shutdown cleans up resources.
	Shutdown(ctx context.Context) error
}

// ExecutionRequest describes a single agent invocation.
type ExecutionRequest struct {
	// CaseID identifies the case this invocation belongs to.
	CaseID string

	// Prompt is the text sent to the agent.
	Prompt string

	// ModelID overrides the engine's default model. Can be blank.
	ModelID string

	// Timeout bounds the invocation. Must be positive.
	Timeout time.Duration
}

// ExecutionResponse is the raw outcome of one agent invocation.
type ExecutionResponse struct {
	// Output is everything the agent produced: combined stdout and stderr
	// for command engines, concatenated assistant messages for session
	// engines.
	Output string

	// ExitCode is the process exit code, or -1 when no code is available
	// (timeouts, spawn failures, session errors).
	ExitCode int

	// TimedOut reports whether the invocation hit its Timeout.
	TimedOut bool

	// ErrorMsg is set when the invocation failed for a reason other than a
	// timeout, e.g. the agent process could not be spawned.
	ErrorMsg string

	// ModelID is the model that handled the invocation, if known.
	ModelID string

	// SessionID is set by session-based engines.
	SessionID string

	// Duration is the wall-clock time of the invocation.
	Duration time.Duration
}
