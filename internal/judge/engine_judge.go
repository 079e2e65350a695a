package judge

import (
	"context"
	"fmt"
	"time"

	"github.com/microsoft/keiko/internal/execution"
)

// engineJudge adapts an execution engine into a Judge: the judge prompt goes
// out as the request, the raw reply comes back as the verdict text. Anything
// short of a clean exit is an error here; the judge has no partial-credit
// states the way agent runs do.
type engineJudge struct {
	name    string
	engine  execution.AgentEngine
	modelID string
	timeout time.Duration
}

func newEngineJudge(name string, engine execution.AgentEngine, modelID string, timeout time.Duration) *engineJudge {
	return &engineJudge{
		name:    name,
		engine:  engine,
		modelID: modelID,
		timeout: timeout,
	}
}

func (j *engineJudge) Name() string {
	return j.name
}

func (j *engineJudge) Initialize(ctx context.Context) error {
	return j.engine.Initialize(ctx)
}

func (j *engineJudge) Evaluate(ctx context.Context, caseID string, prompt string) (string, error) {
	resp, err := j.engine.Execute(ctx, &execution.ExecutionRequest{
		CaseID:  caseID,
		Prompt:  prompt,
		ModelID: j.modelID,
		Timeout: j.timeout,
	})

	if err != nil {
		return "", fmt.Errorf("judge invocation failed: %w", err)
	}

	switch {
	case resp.TimedOut:
		return "", fmt.Errorf("judge timed out after %s", j.timeout)
	case resp.ErrorMsg != "":
		return "", fmt.Errorf("judge failed: %s", resp.ErrorMsg)
	case resp.ExitCode != 0:
		return "", fmt.Errorf("judge exited with code %d", resp.ExitCode)
	}

	return resp.Output, nil
}

func (j *engineJudge) Shutdown(ctx context.Context) error {
	return j.engine.Shutdown(ctx)
}

var _ Judge = (*engineJudge)(nil)
