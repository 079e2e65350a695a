package execution

import (
	"context"

	copilot "github.com/github/copilot-sdk/go"
)

// copilotSession is the slice of [*copilot.Session] the engine touches. A
// batch never resumes sessions, so the surface is create-send-observe only.
type copilotSession interface {
	// On maps to [copilot.Session.On]
	On(handler copilot.SessionEventHandler) func()

	// SendAndWait maps to [copilot.Session.SendAndWait]
	SendAndWait(ctx context.Context, options copilot.MessageOptions) (*copilot.SessionEvent, error)

	// SessionID returns [copilot.Session.SessionID]
	SessionID() string
}

// copilotClient is the slice of [*copilot.Client] the engine touches. Tests
// mock this seam instead of spawning the real copilot process.
type copilotClient interface {
	// CreateSession maps to [copilot.Client.CreateSession]
	CreateSession(ctx context.Context, config *copilot.SessionConfig) (copilotSession, error)

	// Start maps to [copilot.Client.Start]
	Start(ctx context.Context) error

	// Stop maps to [copilot.Client.Stop]
	Stop() error
}

func newCopilotClient(clientOptions *copilot.ClientOptions) copilotClient {
	return &sdkClient{
		inner: copilot.NewClient(clientOptions),
	}
}

// sdkClient forwards to the real SDK client, wrapping each created session so
// it satisfies copilotSession.
type sdkClient struct {
	inner *copilot.Client
}

func (c *sdkClient) CreateSession(ctx context.Context, config *copilot.SessionConfig) (copilotSession, error) {
	sess, err := c.inner.CreateSession(ctx, config)
	if err != nil {
		return nil, err
	}

	return &sdkSession{inner: sess}, nil
}

func (c *sdkClient) Start(ctx context.Context) error {
	return c.inner.Start(ctx)
}

func (c *sdkClient) Stop() error {
	return c.inner.Stop()
}

// sdkSession forwards to the real SDK session. It exists because
// [copilot.Session.SessionID] is a struct field, which an interface cannot
// express directly.
type sdkSession struct {
	inner *copilot.Session
}

func (s *sdkSession) On(handler copilot.SessionEventHandler) func() {
	return s.inner.On(handler)
}

func (s *sdkSession) SendAndWait(ctx context.Context, options copilot.MessageOptions) (*copilot.SessionEvent, error) {
	return s.inner.SendAndWait(ctx, options)
}

func (s *sdkSession) SessionID() string {
	return s.inner.SessionID
}

var (
	_ copilotClient  = (*sdkClient)(nil)
	_ copilotSession = (*sdkSession)(nil)
)
