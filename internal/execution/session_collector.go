package execution

import (
	"strings"

	copilot "github.com/github/copilot-sdk/go"
)

const sessionFailedUnknown = "session failed with unknown error"

// sessionCollector accumulates assistant output from copilot session events
// and records the terminal error, if one arrives.
type sessionCollector struct {
	outputParts []string
	errorMsg    string
}

func newSessionCollector() *sessionCollector {
	return &sessionCollector{}
}

// On is a callback, intended to be passed to [copilot.Session.On] to receive
// events in real-time.
func (c *sessionCollector) On(event copilot.SessionEvent) {
	switch event.Type {
	case copilot.AssistantMessage, copilot.AssistantMessageDelta:
		if event.Data.Content != nil {
			c.outputParts = append(c.outputParts, *event.Data.Content)
		}

	case copilot.SessionError:
		if event.Data.Message == nil || *event.Data.Message == "" {
			c.errorMsg = sessionFailedUnknown
		} else {
			c.errorMsg = *event.Data.Message
		}
	}
}

// Output returns the concatenated assistant output collected so far.
func (c *sessionCollector) Output() string {
	var builder strings.Builder
	for _, p := range c.outputParts {
		builder.WriteString(p)
	}
	return builder.String()
}

// ErrorMessage returns the session error message, if any.
func (c *sessionCollector) ErrorMessage() string {
	return c.errorMsg
}
