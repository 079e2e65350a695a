package execution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/microsoft/keiko/internal/utils"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"
)

var enableCopilotTests = os.Getenv("ENABLE_COPILOT_TESTS") == "true"

func TestCopilotExecute(t *testing.T) {
	ctrl := gomock.NewController(t)
	clientMock := NewMockcopilotClient(ctrl)
	sessionMock := NewMockcopilotSession(ctrl)

	const expectedModel = "this-model-wins"

	unregisterCount := 0
	unregister := func() { unregisterCount++ }

	var handlers []copilot.SessionEventHandler

	clientMock.EXPECT().Start(gomock.Any())
	clientMock.EXPECT().CreateSession(gomock.Any(), sessionConfigMatcher{t: t, model: expectedModel}).Return(sessionMock, nil)
	clientMock.EXPECT().Stop()

	sessionMock.EXPECT().On(gomock.Any()).Times(2).DoAndReturn(func(handler copilot.SessionEventHandler) func() {
		handlers = append(handlers, handler)
		return unregister
	})
	sessionMock.EXPECT().SendAndWait(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, options copilot.MessageOptions) (*copilot.SessionEvent, error) {
		require.Equal(t, "hello?", options.Prompt)

		for _, handler := range handlers {
			handler(copilot.SessionEvent{Type: copilot.AssistantMessage, Data: copilot.Data{Content: utils.Ptr("all done")}})
			handler(copilot.SessionEvent{Type: copilot.SessionIdle})
		}

		return &copilot.SessionEvent{}, nil
	})
	sessionMock.EXPECT().SessionID().Return("session-1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	engine := NewCopilotEngineBuilder("gpt-4o-mini", &CopilotEngineBuilderOptions{
		NewCopilotClient: func(clientOptions *copilot.ClientOptions) copilotClient { return clientMock },
	}).Build()

	defer func() {
		err := engine.Shutdown(context.Background())
		require.NoError(t, err)
	}()

	err := engine.Initialize(ctx)
	require.NoError(t, err)

	resp, err := engine.Execute(ctx, &ExecutionRequest{
		CaseID:  "case-1",
		Prompt:  "hello?",
		ModelID: expectedModel,
		Timeout: time.Minute,
	})
	require.NoError(t, err)
	require.Equal(t, "session-1", resp.SessionID)
	require.Empty(t, resp.ErrorMsg)
	require.False(t, resp.TimedOut)
	require.Equal(t, 0, resp.ExitCode)
	require.Equal(t, "all done", resp.Output)
	require.Equal(t, expectedModel, resp.ModelID)
	require.Equal(t, 2, unregisterCount)
}

func TestCopilotSendAndWaitReturnsErrorInResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	clientMock := NewMockcopilotClient(ctrl)
	sessionMock := NewMockcopilotSession(ctrl)

	const sessionErrorMsg = "session error occurred"

	clientMock.EXPECT().Start(gomock.Any())
	clientMock.EXPECT().CreateSession(gomock.Any(), sessionConfigMatcher{t: t, model: "gpt-4o-mini"}).Return(sessionMock, nil)
	clientMock.EXPECT().Stop()

	sessionMock.EXPECT().On(gomock.Any()).Times(2).Return(func() {})
	sessionMock.EXPECT().SendAndWait(gomock.Any(), gomock.Any()).Return(nil, errors.New(sessionErrorMsg))
	sessionMock.EXPECT().SessionID().Return("session-1")

	engine := NewCopilotEngineBuilder("gpt-4o-mini", &CopilotEngineBuilderOptions{
		NewCopilotClient: func(clientOptions *copilot.ClientOptions) copilotClient { return clientMock },
	}).Build()

	defer func() {
		err := engine.Shutdown(context.Background())
		require.NoError(t, err)
	}()

	err := engine.Initialize(context.Background())
	require.NoError(t, err)

	resp, err := engine.Execute(context.Background(), &ExecutionRequest{
		CaseID:  "case-1",
		Prompt:  "message",
		Timeout: time.Minute,
	})
	require.NoError(t, err)
	require.Equal(t, sessionErrorMsg, resp.ErrorMsg)
	require.False(t, resp.TimedOut)
	require.Equal(t, -1, resp.ExitCode)
}

func TestCopilotExecuteTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	clientMock := NewMockcopilotClient(ctrl)
	sessionMock := NewMockcopilotSession(ctrl)

	clientMock.EXPECT().Start(gomock.Any())
	clientMock.EXPECT().CreateSession(gomock.Any(), gomock.Any()).Return(sessionMock, nil)
	clientMock.EXPECT().Stop()

	sessionMock.EXPECT().On(gomock.Any()).Times(2).Return(func() {})
	sessionMock.EXPECT().SendAndWait(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, options copilot.MessageOptions) (*copilot.SessionEvent, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	sessionMock.EXPECT().SessionID().Return("session-1")

	engine := NewCopilotEngineBuilder("gpt-4o-mini", &CopilotEngineBuilderOptions{
		NewCopilotClient: func(clientOptions *copilot.ClientOptions) copilotClient { return clientMock },
	}).Build()

	defer func() {
		err := engine.Shutdown(context.Background())
		require.NoError(t, err)
	}()

	resp, err := engine.Execute(context.Background(), &ExecutionRequest{
		CaseID:  "slow-case",
		Prompt:  "message",
		Timeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	require.True(t, resp.TimedOut)
	require.Empty(t, resp.ErrorMsg)
	require.Equal(t, -1, resp.ExitCode)
}

func TestCopilotExecute_RequiredFields(t *testing.T) {
	builder := NewCopilotEngineBuilder("gpt-4o-mini", nil)
	engine := builder.Build()

	testCases := []struct {
		ER    ExecutionRequest
		Error string
	}{
		{ER: ExecutionRequest{Timeout: 0}, Error: "positive Timeout is required"},
	}

	for _, td := range testCases {
		t.Run("error: "+td.Error, func(t *testing.T) {
			resp, err := engine.Execute(context.Background(), &td.ER)
			require.ErrorContains(t, err, td.Error)
			require.Empty(t, resp)
		})
	}
}

func TestCopilotExecuteParallel(t *testing.T) {
	if !enableCopilotTests {
		t.Skip("ENABLE_COPILOT_TESTS must be set in order to run live copilot tests")
	}

	for range 5 {
		engine := NewCopilotEngineBuilder("gpt-4o-mini", nil).Build()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		eg := errgroup.Group{}

		for range 10 {
			eg.Go(func() error {
				_, err := engine.Execute(ctx, &ExecutionRequest{
					CaseID:  "live-case",
					Prompt:  "hello!",
					Timeout: 30 * time.Second,
				})
				return err
			})
		}

		err := eg.Wait()
		require.NoError(t, err)
		require.NoError(t, engine.Shutdown(context.Background()))
	}
}

type sessionConfigMatcher struct {
	t     *testing.T
	model string
}

func (m sessionConfigMatcher) Matches(x any) bool {
	config, ok := x.(*copilot.SessionConfig)

	if !ok {
		require.FailNow(m.t, fmt.Sprintf("unhandled session configuration type %T", x))
	}

	require.Equal(m.t, m.model, config.Model)
	require.NotNil(m.t, config.OnPermissionRequest)

	return true
}

func (m sessionConfigMatcher) String() string {
	return ""
}
