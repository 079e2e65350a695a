package utils

import (
	"context"
	"log/slog"

	copilot "github.com/github/copilot-sdk/go"
)

// SessionEventLogger returns a session event handler that traces copilot
// events at debug level, tagged with the case the session is serving. With a
// concurrent batch several sessions stream events at once, so the case id is
// what keeps the trace readable.
func SessionEventLogger(caseID string) func(copilot.SessionEvent) {
	return func(event copilot.SessionEvent) {
		if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			return
		}

		attrs := []any{
			"case", caseID,
			"type", event.Type,
		}

		attrs = addIf(attrs, "content", event.Data.Content)
		attrs = addIf(attrs, "deltaContent", event.Data.DeltaContent)
		attrs = addIf(attrs, "toolName", event.Data.ToolName)
		attrs = addIf(attrs, "toolResult", event.Data.Result)
		attrs = addIf(attrs, "toolCallID", event.Data.ToolCallID)
		attrs = addIf(attrs, "reasoningText", event.Data.ReasoningText)

		slog.Debug("session event", attrs...)
	}
}

func addIf[T any](attrs []any, name string, v *T) []any {
	if v != nil {
		attrs = append(attrs, name)
		attrs = append(attrs, *v)
	}

	return attrs
}
