package mock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// MockGenerator is a test double for ai.Generator.
// It records the last prompt it received.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	callCount  atomic.Int64
	mu         sync.Mutex
	lastPrompt string
}

// NewMockGenerator creates a mock generator with default behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns the injected response or a fixed answer.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.callCount.Add(1)
	m.mu.Lock()
	m.lastPrompt = prompt
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return fmt.Sprintf("mock answer (%d prompt bytes)", len(prompt)), nil
}

// LastPrompt returns the most recent prompt passed to Generate.
func (m *MockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count, last prompt and custom function.
func (m *MockGenerator) Reset() {
	m.callCount.Store(0)
	m.mu.Lock()
	m.lastPrompt = ""
	m.mu.Unlock()
	m.GenerateFunc = nil
}
