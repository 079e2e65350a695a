// Package judge invokes an LLM judge over run artifacts and parses its
// verdict. The scorer owns record building; this package owns the judge seam:
// prompt composition, backend invocation, and response extraction.
package judge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/microsoft/keiko/internal/execution"
)

// Kind selects a judge backend.
type Kind string

const (
	// KindCLI pipes the judge prompt to an external command's stdin and reads
	// the verdict from its combined output.
	KindCLI Kind = "cli"

	// KindCopilot judges through a copilot-sdk session.
	KindCopilot Kind = "copilot"

	// KindMock returns canned verdicts. Useful for plumbing checks and demos.
	KindMock Kind = "mock"
)

// DefaultTimeout bounds one judge invocation. Verdicts are short; a minute is
// generous.
const DefaultTimeout = 60 * time.Second

// Judge produces a raw textual verdict for a composed judge prompt. The case
// ID is bookkeeping only (environment exports, transcripts); the prompt is
// self-contained.
type Judge interface {
	Name() string
	Initialize(ctx context.Context) error
	Evaluate(ctx context.Context, caseID string, prompt string) (string, error)
	Shutdown(ctx context.Context) error
}

// New creates a judge from the kind and its free-form params.
func New(kind Kind, params map[string]any) (Judge, error) {
	switch kind {
	case KindCLI:
		var v *struct {
			Command        []string `mapstructure:"command"`
			TimeoutSeconds int      `mapstructure:"timeout_seconds"`
		}

		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, err
		}

		if v == nil || len(v.Command) == 0 {
			return nil, errors.New("required field 'command' is missing")
		}

		engine, err := execution.NewCLIEngine(v.Command)
		if err != nil {
			return nil, err
		}

		return newEngineJudge(string(KindCLI), engine, "", timeoutFromSeconds(v.TimeoutSeconds)), nil
	case KindCopilot:
		var v *struct {
			Model          string `mapstructure:"model"`
			TimeoutSeconds int    `mapstructure:"timeout_seconds"`
		}

		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, err
		}

		var model string
		var timeoutSeconds int

		if v != nil {
			model = v.Model
			timeoutSeconds = v.TimeoutSeconds
		}

		engine := execution.NewCopilotEngineBuilder(model, nil).Build()
		return newEngineJudge(string(KindCopilot), engine, model, timeoutFromSeconds(timeoutSeconds)), nil
	case KindMock:
		return NewMockJudge(), nil
	default:
		return nil, fmt.Errorf("'%s' is not a valid judge kind", kind)
	}
}

func timeoutFromSeconds(seconds int) time.Duration {
	if seconds <= 0 {
		return DefaultTimeout
	}

	return time.Duration(seconds) * time.Second
}
