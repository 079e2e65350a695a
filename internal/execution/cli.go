package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CLIEngine runs the agent as an external command. The case prompt is written
// to the command's stdin and stdout+stderr are captured together as the
// agent's output.
type CLIEngine struct {
	argv []string
}

// NewCLIEngine creates an engine that invokes argv once per case. argv[0] is
// the command, the rest are passed through as arguments.
func NewCLIEngine(argv []string) (*CLIEngine, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, fmt.Errorf("agent command is required")
	}

	return &CLIEngine{argv: argv}, nil
}

// Initialize verifies the agent command can be found.
func (e *CLIEngine) Initialize(ctx context.Context) error {
	if _, err := exec.LookPath(e.argv[0]); err != nil {
		return fmt.Errorf("agent command %q not found: %w", e.argv[0], err)
	}

	return nil
}

// Execute runs the agent command with req.Prompt on stdin. The case ID and
// model are exported as KEIKO_CASE_ID and KEIKO_MODEL so agent wrappers can
// pick them up without argument parsing.
func (e *CLIEngine) Execute(ctx context.Context, req *ExecutionRequest) (*ExecutionResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil req was passed to CLIEngine.Execute")
	}

	if req.Timeout <= 0 {
		return nil, fmt.Errorf("positive Timeout is required")
	}

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.argv[0], e.argv[1:]...)
	cmd.Stdin = strings.NewReader(req.Prompt)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	cmd.Env = append(cmd.Environ(),
		"KEIKO_CASE_ID="+req.CaseID,
		"KEIKO_MODEL="+req.ModelID,
	)

	start := time.Now()
	err := cmd.Run()

	resp := &ExecutionResponse{
		Output:   output.String(),
		ModelID:  req.ModelID,
		Duration: time.Since(start),
	}

	if err == nil {
		return resp, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		resp.TimedOut = true
		resp.ExitCode = -1
		return resp, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// the agent ran; the exit code is the record. The runner classifies
		// non-zero exits, not the engine.
		resp.ExitCode = exitErr.ExitCode()
		return resp, nil
	}

	resp.ExitCode = -1
	resp.ErrorMsg = err.Error()
	return resp, nil
}

// Shutdown is a no-op for command engines.
func (e *CLIEngine) Shutdown(ctx context.Context) error {
	return nil
}

var _ AgentEngine = (*CLIEngine)(nil)
