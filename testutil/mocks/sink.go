package mocks

import (
	"context"
	"sync"

	"github.com/churninator/churninator/agent/browser"
)

// MockSink 同时实现 browser.LogSink 与 browser.FrameSink
type MockSink struct {
	mu sync.Mutex

	err error

	lines  map[string][]string
	frames map[string][]string
}

// NewMockSink 创建新的 MockSink
func NewMockSink() *MockSink {
	return &MockSink{
		lines:  make(map[string][]string),
		frames: make(map[string][]string),
	}
}

// WithError 使所有发布返回 err
func (m *MockSink) WithError(err error) *MockSink {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Publish implements browser.LogSink.
func (m *MockSink) Publish(_ context.Context, runID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.lines[runID] = append(m.lines[runID], message)
	return nil
}

// PublishFrame implements browser.FrameSink.
func (m *MockSink) PublishFrame(_ context.Context, runID, frame string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.frames[runID] = append(m.frames[runID], frame)
	return nil
}

// Lines 返回某次运行的日志
func (m *MockSink) Lines(runID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.lines[runID]...)
}

// Frames 返回某次运行的截图（不含结束标记）
func (m *MockSink) Frames(runID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, f := range m.frames[runID] {
		if f != browser.EndOfFrames {
			out = append(out, f)
		}
	}
	return out
}

// Ended 报告某次运行是否已发布结束标记
func (m *MockSink) Ended(runID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	frames := m.frames[runID]
	return len(frames) > 0 && frames[len(frames)-1] == browser.EndOfFrames
}
