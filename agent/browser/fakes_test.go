package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeDriver records every command as a string.
type fakeDriver struct {
	mu       sync.Mutex
	commands []string
	viewport *Viewport
	url      string
	failOn   string
	shotErr  error
}

func (d *fakeDriver) log(format string, args ...any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cmd := fmt.Sprintf(format, args...)
	d.commands = append(d.commands, cmd)
	if d.failOn != "" && len(cmd) >= len(d.failOn) && cmd[:len(d.failOn)] == d.failOn {
		return errors.New("driver failure")
	}
	return nil
}

func (d *fakeDriver) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string{}, d.commands...)
}

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.url = url
	return d.log("navigate %s", url)
}

func (d *fakeDriver) Screenshot(context.Context) (*Screenshot, error) {
	if d.shotErr != nil {
		return nil, d.shotErr
	}
	return &Screenshot{Data: []byte("png"), Width: 1920, Height: 1080, Timestamp: time.Now(), URL: d.url}, nil
}

func (d *fakeDriver) Viewport(context.Context) (*Viewport, error) { return d.viewport, nil }

func (d *fakeDriver) Click(_ context.Context, x, y float64, button MouseButton, count int) error {
	return d.log("click %.0f,%.0f %s x%d", x, y, button, count)
}

func (d *fakeDriver) MoveMouse(_ context.Context, x, y float64) error {
	return d.log("move %.0f,%.0f", x, y)
}

func (d *fakeDriver) DragTo(_ context.Context, x, y float64) error {
	return d.log("drag %.0f,%.0f", x, y)
}

func (d *fakeDriver) Type(_ context.Context, text string, delay time.Duration) error {
	return d.log("type %q %s", text, delay)
}

func (d *fakeDriver) Press(_ context.Context, key string) error { return d.log("press %s", key) }

func (d *fakeDriver) Scroll(_ context.Context, dx, dy float64) error {
	return d.log("scroll %.0f,%.0f", dx, dy)
}

func (d *fakeDriver) Back(context.Context) error { return d.log("back") }

func (d *fakeDriver) URL(context.Context) (string, error) { return d.url, nil }

func (d *fakeDriver) Close() error { return nil }

// memSink keeps published lines in memory.
type memSink struct {
	mu     sync.Mutex
	lines  []string
	frames int
	ended  bool
}

func (s *memSink) Publish(_ context.Context, _ string, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, msg)
	return nil
}

func (s *memSink) PublishFrame(_ context.Context, _ string, frame string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if frame == EndOfFrames {
		s.ended = true
		return nil
	}
	s.frames++
	return nil
}

func (s *memSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.lines...)
}

// scriptedProposer replays fixed responses.
type scriptedProposer struct {
	responses []VLMResponse
	err       error
	calls     int
	histories [][]string
}

func (p *scriptedProposer) ProposeAction(_ context.Context, _ BrowserTask, _ *Screenshot, history []string) (*VLMResponse, error) {
	p.histories = append(p.histories, append([]string{}, history...))
	if p.err != nil {
		return nil, p.err
	}
	i := p.calls
	p.calls++
	if i >= len(p.responses) {
		return &VLMResponse{Thought: "idle", Action: "wait(seconds=0)"}, nil
	}
	r := p.responses[i]
	return &r, nil
}
