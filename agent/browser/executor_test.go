package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/churninator/churninator/agent/actionspace"
	"github.com/churninator/churninator/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

type recordedAction struct {
	action, status string
}

type fakeActionRecorder struct {
	seen []recordedAction
}

func (r *fakeActionRecorder) RecordAction(action, status string, _ time.Duration) {
	r.seen = append(r.seen, recordedAction{action, status})
}

func newTestExecutor(t *testing.T, driver *fakeDriver, sink *memSink, opts ...ExecutorOption) *Executor {
	t.Helper()
	cfg := DefaultBrowserConfig()
	cfg.TypeDelay = 0
	cfg.MaxWait = 50 * time.Millisecond
	opts = append([]ExecutorOption{WithLogSink(sink)}, opts...)
	return NewExecutor(driver, cfg, zaptest.NewLogger(t), opts...)
}

func TestExecutor_Dispatch(t *testing.T) {
	tests := []struct {
		action string
		want   []string
	}{
		{"click(x=0.5, y=0.5)", []string{"click 960,540 left x1"}},
		{"click(from_coord=[0.25, 0.5])", []string{"click 480,540 left x1"}},
		{"double_click(x=0.1, y=0.1)", []string{"click 192,108 left x2"}},
		{"right_click(x=1, y=1)", []string{"click 1920,1080 right x1"}},
		{"move_mouse(x=0.5, y=0)", []string{"move 960,0"}},
		{"drag(from_coord=[0, 0], to_coord=[0.5, 0.5])", []string{"move 0,0", "drag 960,540"}},
		{"drag(x=0.5, y=0.5)", []string{"drag 960,540"}},
		{"type(text='hello')", []string{`type "hello" 0s`}},
		{"type(text=42)", []string{`type "42" 0s`}},
		{"press(keys='enter')", []string{"press enter"}},
		{"press(keys=['Control', 'c'])", []string{"press Control+c"}},
		{"scroll(amount=3, direction='down')", []string{"scroll 0,300"}},
		{"scroll(amount=3, direction='up')", []string{"scroll 0,-300"}},
		{"scroll(amount=2, direction='right')", []string{"scroll 200,0"}},
		{"scroll(amount=2, direction='left')", []string{"scroll -200,0"}},
		{"navigate_back()", []string{"back"}},
		{"wait(seconds=0)", nil},
		{"WAIT(0)", nil},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			driver := &fakeDriver{}
			sink := &memSink{}
			exec := newTestExecutor(t, driver, sink)

			out, err := exec.Execute(context.Background(), "run-1", tt.action)
			require.NoError(t, err)
			require.NotNil(t, out)
			assert.False(t, out.Done)
			assert.Equal(t, tt.want, nilIfEmpty(driver.Commands()))
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestExecutor_UsesDriverViewport(t *testing.T) {
	driver := &fakeDriver{viewport: &Viewport{Width: 1000, Height: 500}}
	exec := newTestExecutor(t, driver, &memSink{})

	_, err := exec.Execute(context.Background(), "run", "click(x=0.5, y=0.5)")
	require.NoError(t, err)
	assert.Equal(t, []string{"click 500,250 left x1"}, driver.Commands())
}

func TestExecutor_PublishesExecuting(t *testing.T) {
	sink := &memSink{}
	exec := newTestExecutor(t, &fakeDriver{}, sink)

	_, err := exec.Execute(context.Background(), "run", "Sure: click(x=0.5, y=0.25) then more")
	require.NoError(t, err)
	assert.Equal(t, []string{"Executing: click with params: {'x': 0.5, 'y': 0.25}"}, sink.Lines())
}

func TestExecutor_Terminal(t *testing.T) {
	for _, action := range []string{"final_answer('done')", "TERMINATE('goal reached')", "terminate()"} {
		t.Run(action, func(t *testing.T) {
			driver := &fakeDriver{}
			exec := newTestExecutor(t, driver, &memSink{})
			out, err := exec.Execute(context.Background(), "run", action)
			require.NoError(t, err)
			assert.True(t, out.Done)
			assert.Empty(t, driver.Commands())
		})
	}
}

func TestExecutor_ParseError(t *testing.T) {
	sink := &memSink{}
	rec := &fakeActionRecorder{}
	exec := newTestExecutor(t, &fakeDriver{}, sink, WithActionRecorder(rec))

	out, err := exec.Execute(context.Background(), "run", "I am not sure what to do")
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, types.ErrParseFailed, types.GetErrorCode(err))
	assert.Equal(t, []string{"Parser Error: Could not parse action 'I am not sure what to do'"}, sink.Lines())
	assert.Equal(t, []recordedAction{{"", StatusUnparsed}}, rec.seen)
}

func TestExecutor_Unsupported(t *testing.T) {
	sink := &memSink{}
	exec := newTestExecutor(t, &fakeDriver{}, sink)

	_, err := exec.Execute(context.Background(), "run", "open_app('Maps')")
	require.Error(t, err)
	assert.Equal(t, types.ErrUnsupportedAction, types.GetErrorCode(err))
	lines := sink.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Execution Error: Failed to execute open_app. Reason:")
}

func TestExecutor_MalformedArguments(t *testing.T) {
	tests := []struct {
		action string
		field  string
	}{
		{"click(x=0.5)", "y"},
		{"click()", "x"},
		{"click(x='left', y=0.5)", "x"},
		{"click(from_coord=[0.5])", "from_coord"},
		{"type()", "text"},
		{"press(keys=[])", "keys"},
		{"scroll(amount=3)", "direction"},
		{"scroll(amount=3, direction='sideways')", "direction"},
		{"scroll(amount='lots', direction='up')", "amount"},
		{"wait()", "seconds"},
		{"wait(seconds=-1)", "seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			driver := &fakeDriver{}
			sink := &memSink{}
			exec := newTestExecutor(t, driver, sink)

			_, err := exec.Execute(context.Background(), "run", tt.action)
			require.Error(t, err)
			assert.Equal(t, types.ErrExecutionFailed, types.GetErrorCode(err))

			var merr *actionspace.MalformedActionError
			require.True(t, errors.As(err, &merr))
			assert.Equal(t, tt.field, merr.Field)
			assert.Empty(t, driver.Commands())
			assert.Contains(t, sink.Lines()[len(sink.Lines())-1], "Execution Error:")
		})
	}
}

func TestExecutor_DriverFailure(t *testing.T) {
	driver := &fakeDriver{failOn: "click"}
	rec := &fakeActionRecorder{}
	exec := newTestExecutor(t, driver, &memSink{}, WithActionRecorder(rec))

	out, err := exec.Execute(context.Background(), "run", "click(x=0.1, y=0.1)")
	require.Error(t, err)
	require.NotNil(t, out)
	assert.Equal(t, types.ErrExecutionFailed, types.GetErrorCode(err))
	assert.Equal(t, []recordedAction{{"click", StatusFailed}}, rec.seen)
}

func TestExecutor_WaitHonoursContext(t *testing.T) {
	cfg := DefaultBrowserConfig()
	exec := NewExecutor(&fakeDriver{}, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := exec.Execute(ctx, "run", "wait(seconds=30)")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecutor_WaitCappedByMaxWait(t *testing.T) {
	exec := newTestExecutor(t, &fakeDriver{}, &memSink{})

	start := time.Now()
	_, err := exec.Execute(context.Background(), "run", "wait(seconds=30)")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecutor_RecordsActionSpans(t *testing.T) {
	orig := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(orig) })

	spans := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)))

	exec := newTestExecutor(t, &fakeDriver{failOn: "type"}, &memSink{})
	_, err := exec.Execute(context.Background(), "run-7", "click(x=0.1, y=0.1)")
	require.NoError(t, err)
	_, err = exec.Execute(context.Background(), "run-7", "type(text='x')")
	require.Error(t, err)

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "browser.action", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("browser.action", "click"))
	assert.Contains(t, ended[0].Attributes(), attribute.String("churninator.run_id", "run-7"))
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)
}
