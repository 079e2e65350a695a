package judge

import (
	"context"
	"sync"
)

const mockVerdict = `{"scores": {"correctness": 0.8, "code_quality": 0.8, "security": 0.8, "performance": 0.8, "test_coverage": 0.8}, "notes": "mock verdict"}`

// MockJudge returns canned verdicts without touching any backend. Unscripted
// cases get a parseable mid-range payload.
type MockJudge struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]error
	prompts   map[string]string
}

// NewMockJudge creates a new mock judge
func NewMockJudge() *MockJudge {
	return &MockJudge{
		responses: map[string]string{},
		failures:  map[string]error{},
		prompts:   map[string]string{},
	}
}

// Script sets the raw response returned for a case ID.
func (m *MockJudge) Script(caseID, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses[caseID] = response
}

// ScriptError makes Evaluate fail for a case ID.
func (m *MockJudge) ScriptError(caseID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures[caseID] = err
}

// Prompt returns the prompt Evaluate last saw for a case ID.
func (m *MockJudge) Prompt(caseID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.prompts[caseID]
}

func (m *MockJudge) Name() string {
	return string(KindMock)
}

func (m *MockJudge) Initialize(ctx context.Context) error {
	return nil
}

func (m *MockJudge) Evaluate(ctx context.Context, caseID string, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts[caseID] = prompt

	if err, ok := m.failures[caseID]; ok {
		return "", err
	}

	if resp, ok := m.responses[caseID]; ok {
		return resp, nil
	}

	return mockVerdict, nil
}

func (m *MockJudge) Shutdown(ctx context.Context) error {
	return nil
}

var _ Judge = (*MockJudge)(nil)
