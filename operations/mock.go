package operations

import (
	"context"
	"strings"
)

// MockResponse is the canned outcome of one mocked command
type MockResponse struct {
	Output []byte
	Err    error
}

// MockCall records one command seen by MockExecutor
type MockCall struct {
	Name     string
	Args     []string
	Env      []string
	Streamed bool
}

// Line returns the call as "name arg arg"
func (c MockCall) Line() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// MockExecutor implements CommandExecutor for testing.
//
// Responses are looked up by the command line "name arg arg". Sequences are
// consumed first, one entry per call; MockResponses answers every call after.
// Unknown commands succeed with empty output.
type MockExecutor struct {
	MockResponses map[string]MockResponse
	Sequences     map[string][]MockResponse
	Calls         []MockCall

	// OnCall, when set, runs before the response is returned
	OnCall func(call MockCall)
}

// NewMockExecutor creates a new MockExecutor
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		MockResponses: make(map[string]MockResponse),
		Sequences:     make(map[string][]MockResponse),
	}
}

// Execute implements CommandExecutor.Execute for testing
func (m *MockExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	resp := m.record(MockCall{Name: name, Args: args})
	return resp.Output, resp.Err
}

// Stream implements CommandExecutor.Stream for testing
func (m *MockExecutor) Stream(ctx context.Context, env []string, name string, args ...string) error {
	resp := m.record(MockCall{Name: name, Args: args, Env: env, Streamed: true})
	return resp.Err
}

// Lines returns every recorded call as a command line
func (m *MockExecutor) Lines() []string {
	lines := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		lines[i] = c.Line()
	}
	return lines
}

func (m *MockExecutor) record(call MockCall) MockResponse {
	m.Calls = append(m.Calls, call)
	if m.OnCall != nil {
		m.OnCall(call)
	}

	key := call.Line()
	if seq := m.Sequences[key]; len(seq) > 0 {
		m.Sequences[key] = seq[1:]
		return seq[0]
	}
	if resp, ok := m.MockResponses[key]; ok {
		return resp
	}
	return MockResponse{}
}
