package mocks

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted 在预置输出用尽后返回
var ErrScriptExhausted = errors.New("mock vision provider: no more completions")

// MockVisionCall 记录单次调用
type MockVisionCall struct {
	ImageBase64 string
	Prompt      string
}

// MockVisionProvider 是 browser.VisionProvider 的模拟实现
type MockVisionProvider struct {
	mu sync.Mutex

	completions []string
	err         error
	failAfter   int

	calls []MockVisionCall
}

// NewMockVisionProvider 创建按顺序返回 completions 的 MockVisionProvider
func NewMockVisionProvider(completions ...string) *MockVisionProvider {
	return &MockVisionProvider{completions: completions}
}

// WithError 设置返回错误
func (m *MockVisionProvider) WithError(err error) *MockVisionProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailAfter 在第 n 次调用之后返回错误
func (m *MockVisionProvider) WithFailAfter(n int, err error) *MockVisionProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	m.err = err
	return m
}

// Generate implements browser.VisionProvider.
func (m *MockVisionProvider) Generate(ctx context.Context, imageBase64, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockVisionCall{ImageBase64: imageBase64, Prompt: prompt})
	n := len(m.calls)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.err != nil && n > m.failAfter {
		return "", m.err
	}
	if n > len(m.completions) {
		return "", ErrScriptExhausted
	}
	return m.completions[n-1], nil
}

// Calls 返回调用记录
func (m *MockVisionProvider) Calls() []MockVisionCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockVisionCall{}, m.calls...)
}

// CallCount 返回调用次数
func (m *MockVisionProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
