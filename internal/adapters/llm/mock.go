package llm

import (
	"context"
	"sync"
)

// MockModel is a scriptable ChatModel for local development and tests.
// Queued responses are returned in order; once drained it falls back to the
// no-intervention sentinel so a mock-backed mediator stays quiet by default.
type MockModel struct {
	mu        sync.Mutex
	responses []string
	fallback  string
}

func NewMockModel() *MockModel {
	return &MockModel{fallback: "[NO_INTERVENTION]"}
}

// Enqueue adds a scripted completion.
func (m *MockModel) Enqueue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

// SetFallback changes the completion returned once the queue is drained.
func (m *MockModel) SetFallback(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = text
}

func (m *MockModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) > 0 {
		next := m.responses[0]
		m.responses = m.responses[1:]
		return next, nil
	}
	return m.fallback, nil
}
