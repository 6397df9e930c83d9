// Package browser drives a web page from model-proposed call-syntax actions.
package browser

import (
	"context"
	"encoding/base64"
	"time"
)

// MouseButton identifies a mouse button.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// Viewport is the visible page area in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Screenshot 浏览器截图
type Screenshot struct {
	Data      []byte    `json:"data"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
}

// ScreenshotToBase64 将截图转换为 Base64
func ScreenshotToBase64(s *Screenshot) string {
	if s == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(s.Data)
}

// BrowserDriver 浏览器控制接口。坐标均为像素。
type BrowserDriver interface {
	Navigate(ctx context.Context, url string) error
	Screenshot(ctx context.Context) (*Screenshot, error)
	// Viewport returns nil when the page has no fixed viewport.
	Viewport(ctx context.Context) (*Viewport, error)
	Click(ctx context.Context, x, y float64, button MouseButton, count int) error
	MoveMouse(ctx context.Context, x, y float64) error
	// DragTo presses the left button at the current pointer position, moves
	// to (x, y) and releases.
	DragTo(ctx context.Context, x, y float64) error
	Type(ctx context.Context, text string, delay time.Duration) error
	// Press sends a key or a "+"-joined chord such as "Control+C".
	Press(ctx context.Context, key string) error
	Scroll(ctx context.Context, deltaX, deltaY float64) error
	Back(ctx context.Context) error
	URL(ctx context.Context) (string, error)
	Close() error
}

// BrowserConfig 执行器配置
type BrowserConfig struct {
	ViewportWidth    int           `json:"viewport_width" yaml:"viewport_width" env:"VIEWPORT_WIDTH"`
	ViewportHeight   int           `json:"viewport_height" yaml:"viewport_height" env:"VIEWPORT_HEIGHT"`
	ScrollMultiplier int           `json:"scroll_multiplier" yaml:"scroll_multiplier" env:"SCROLL_MULTIPLIER"`
	TypeDelay        time.Duration `json:"type_delay" yaml:"type_delay" env:"TYPE_DELAY"`
	MaxWait          time.Duration `json:"max_wait" yaml:"max_wait" env:"MAX_WAIT"`
	ActionTimeout    time.Duration `json:"action_timeout" yaml:"action_timeout" env:"ACTION_TIMEOUT"`
}

// DefaultBrowserConfig returns sensible defaults.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		ViewportWidth:    1920,
		ViewportHeight:   1080,
		ScrollMultiplier: 100,
		TypeDelay:        50 * time.Millisecond,
		MaxWait:          time.Minute,
		ActionTimeout:    30 * time.Second,
	}
}

// LogSink receives human-readable run log lines.
type LogSink interface {
	Publish(ctx context.Context, runID, message string) error
}

// EndOfFrames is published on the frame stream when a run finishes.
const EndOfFrames = "END"

// FrameSink receives base64 encoded screenshots of a run. A LogSink may
// implement it as well.
type FrameSink interface {
	PublishFrame(ctx context.Context, runID, frame string) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Publish(context.Context, string, string) error      { return nil }
func (NopSink) PublishFrame(context.Context, string, string) error { return nil }
