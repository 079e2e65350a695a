package execution

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockEngine is a deterministic in-memory engine for tests and dry runs.
// Unscripted cases get a canned response echoing the prompt.
type MockEngine struct {
	modelID string

	mu        sync.Mutex
	responses map[string]*ExecutionResponse
	calls     []string
}

// NewMockEngine creates a new mock engine
func NewMockEngine(modelID string) *MockEngine {
	return &MockEngine{
		modelID:   modelID,
		responses: map[string]*ExecutionResponse{},
	}
}

// Script sets the response returned for a case ID.
func (m *MockEngine) Script(caseID string, resp *ExecutionResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses[caseID] = resp
}

// Calls returns the case IDs Execute has seen, in call order.
func (m *MockEngine) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.calls...)
}

func (m *MockEngine) Initialize(ctx context.Context) error {
	return nil
}

func (m *MockEngine) Execute(ctx context.Context, req *ExecutionRequest) (*ExecutionResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil req was passed to MockEngine.Execute")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req.CaseID)

	if resp, ok := m.responses[req.CaseID]; ok {
		copied := *resp
		return &copied, nil
	}

	return &ExecutionResponse{
		Output:   fmt.Sprintf("Mock response for: %s", req.Prompt),
		ModelID:  m.modelID,
		Duration: time.Millisecond,
	}, nil
}

func (m *MockEngine) Shutdown(ctx context.Context) error {
	return nil
}

var _ AgentEngine = (*MockEngine)(nil)
