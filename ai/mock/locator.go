package mock

import (
	"context"
	"sync/atomic"
)

// MockLocationExtractor is a test double for ai.LocationExtractor.
type MockLocationExtractor struct {
	// ExtractLocationFunc is called by ExtractLocation if set.
	// If nil, no location is found.
	ExtractLocationFunc func(ctx context.Context, text string) (string, bool, error)

	callCount atomic.Int64
}

// NewMockLocationExtractor creates a mock location extractor that finds nothing.
func NewMockLocationExtractor() *MockLocationExtractor {
	return &MockLocationExtractor{}
}

// ExtractLocation returns the injected result or no location.
func (m *MockLocationExtractor) ExtractLocation(ctx context.Context, text string) (string, bool, error) {
	m.callCount.Add(1)

	if m.ExtractLocationFunc != nil {
		return m.ExtractLocationFunc(ctx, text)
	}
	return "", false, nil
}

// CallCount returns the number of times ExtractLocation was called.
func (m *MockLocationExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom function.
func (m *MockLocationExtractor) Reset() {
	m.callCount.Store(0)
	m.ExtractLocationFunc = nil
}
