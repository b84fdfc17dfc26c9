package testutils

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrMockGeneration is returned by MockCaller when a prompt matches FailOn.
var ErrMockGeneration = errors.New("mock generation failure")

// MockCaller is a test generator that records prompts and returns a
// configurable reply.
type MockCaller struct {
	// Response is returned for every prompt. Empty is allowed, to exercise
	// blank-answer handling.
	Response string

	// Reply, when set, overrides Response per prompt.
	Reply func(prompt string) string

	// FailOn causes a call to fail when the prompt contains it.
	FailOn string

	// Delay makes every call block for the given duration or until the
	// context is done, whichever comes first.
	Delay time.Duration

	mu      sync.Mutex
	prompts []string
}

// NewMockCaller creates a mock that always replies with response.
func NewMockCaller(response string) *MockCaller {
	return &MockCaller{Response: response}
}

// Call matches llm.CallFunc.
func (m *MockCaller) Call(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if m.FailOn != "" && strings.Contains(prompt, m.FailOn) {
		return "", ErrMockGeneration
	}

	if m.Reply != nil {
		return m.Reply(prompt), nil
	}
	return m.Response, nil
}

// Prompts returns every prompt received, in call order.
func (m *MockCaller) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
