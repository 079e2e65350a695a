package execution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMockEngine(t *testing.T) {
	t.Run("canned response echoes the prompt", func(t *testing.T) {
		engine := NewMockEngine("gpt-4o-mini")
		require.NoError(t, engine.Initialize(context.Background()))

		resp, err := engine.Execute(context.Background(), &ExecutionRequest{
			CaseID:  "case-1",
			Prompt:  "hello",
			Timeout: time.Minute,
		})
		require.NoError(t, err)
		require.Equal(t, "Mock response for: hello", resp.Output)
		require.Equal(t, "gpt-4o-mini", resp.ModelID)
		require.Equal(t, 0, resp.ExitCode)
		require.False(t, resp.TimedOut)

		require.NoError(t, engine.Shutdown(context.Background()))
	})

	t.Run("scripted responses win", func(t *testing.T) {
		engine := NewMockEngine("gpt-4o-mini")
		engine.Script("flaky-case", &ExecutionResponse{
			Output:   "scripted output",
			ExitCode: 2,
		})

		resp, err := engine.Execute(context.Background(), &ExecutionRequest{
			CaseID:  "flaky-case",
			Prompt:  "hello",
			Timeout: time.Minute,
		})
		require.NoError(t, err)
		require.Equal(t, "scripted output", resp.Output)
		require.Equal(t, 2, resp.ExitCode)
	})

	t.Run("records call order", func(t *testing.T) {
		engine := NewMockEngine("")

		for _, id := range []string{"a", "b", "c"} {
			_, err := engine.Execute(context.Background(), &ExecutionRequest{CaseID: id, Timeout: time.Minute})
			require.NoError(t, err)
		}

		require.Equal(t, []string{"a", "b", "c"}, engine.Calls())
	})
}
