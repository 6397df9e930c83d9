package mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/churninator/churninator/agent/browser"
)

// ErrDriverFailure 是未指定错误时注入的默认失败
var ErrDriverFailure = errors.New("mock driver failure")

// --- MockDriver 结构 ---

// MockDriver 是 browser.BrowserDriver 的模拟实现
type MockDriver struct {
	mu sync.Mutex

	// 页面状态
	url        string
	viewport   *browser.Viewport
	screenshot []byte

	// 错误注入
	failPrefix string
	failErr    error
	shotErr    error

	// 调用记录
	commands []string
	shots    int
}

// --- 构造函数和 Builder 方法 ---

// NewMockDriver 创建新的 MockDriver
func NewMockDriver() *MockDriver {
	return &MockDriver{
		url:        "about:blank",
		screenshot: []byte("png"),
	}
}

// WithViewport 设置固定视口
func (m *MockDriver) WithViewport(width, height int) *MockDriver {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = &browser.Viewport{Width: width, Height: height}
	return m
}

// WithScreenshot 设置截图内容
func (m *MockDriver) WithScreenshot(data []byte) *MockDriver {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.screenshot = data
	return m
}

// WithScreenshotError 使截图始终失败
func (m *MockDriver) WithScreenshotError(err error) *MockDriver {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shotErr = err
	return m
}

// WithFailure 使以 prefix 开头的命令返回 err（nil 时为 ErrDriverFailure）
func (m *MockDriver) WithFailure(prefix string, err error) *MockDriver {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		err = ErrDriverFailure
	}
	m.failPrefix = prefix
	m.failErr = err
	return m
}

// --- 查询方法 ---

// Commands 返回已记录的命令
func (m *MockDriver) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.commands...)
}

// ScreenshotCount 返回截图次数
func (m *MockDriver) ScreenshotCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shots
}

func (m *MockDriver) record(format string, args ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := fmt.Sprintf(format, args...)
	m.commands = append(m.commands, cmd)
	if m.failPrefix != "" && strings.HasPrefix(cmd, m.failPrefix) {
		return m.failErr
	}
	return nil
}

// --- BrowserDriver 实现 ---

func (m *MockDriver) Navigate(_ context.Context, url string) error {
	if err := m.record("navigate %s", url); err != nil {
		return err
	}
	m.mu.Lock()
	m.url = url
	m.mu.Unlock()
	return nil
}

func (m *MockDriver) Screenshot(context.Context) (*browser.Screenshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shots++
	if m.shotErr != nil {
		return nil, m.shotErr
	}
	width, height := 1920, 1080
	if m.viewport != nil {
		width, height = m.viewport.Width, m.viewport.Height
	}
	return &browser.Screenshot{
		Data:      append([]byte{}, m.screenshot...),
		Width:     width,
		Height:    height,
		Timestamp: time.Now(),
		URL:       m.url,
	}, nil
}

func (m *MockDriver) Viewport(context.Context) (*browser.Viewport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.viewport == nil {
		return nil, nil
	}
	vp := *m.viewport
	return &vp, nil
}

func (m *MockDriver) Click(_ context.Context, x, y float64, button browser.MouseButton, count int) error {
	return m.record("click %.0f,%.0f %s x%d", x, y, button, count)
}

func (m *MockDriver) MoveMouse(_ context.Context, x, y float64) error {
	return m.record("move %.0f,%.0f", x, y)
}

func (m *MockDriver) DragTo(_ context.Context, x, y float64) error {
	return m.record("drag %.0f,%.0f", x, y)
}

func (m *MockDriver) Type(_ context.Context, text string, delay time.Duration) error {
	return m.record("type %q %s", text, delay)
}

func (m *MockDriver) Press(_ context.Context, key string) error {
	return m.record("press %s", key)
}

func (m *MockDriver) Scroll(_ context.Context, dx, dy float64) error {
	return m.record("scroll %.0f,%.0f", dx, dy)
}

func (m *MockDriver) Back(context.Context) error {
	return m.record("back")
}

func (m *MockDriver) URL(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url, nil
}

func (m *MockDriver) Close() error {
	return m.record("close")
}
