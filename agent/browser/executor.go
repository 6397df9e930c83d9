package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/churninator/churninator/agent/actionspace"
	cp "github.com/churninator/churninator/agent/callparser"
	"github.com/churninator/churninator/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tracer 由全局 provider 委托，telemetry.Init 之后安装的 provider 同样生效
var tracer = otel.Tracer("github.com/churninator/churninator/agent/browser")

// Execution outcomes reported to an ActionRecorder.
const (
	StatusOK          = "ok"
	StatusFailed      = "failed"
	StatusUnparsed    = "unparsed"
	StatusTerminal    = "terminal"
	StatusUnsupported = "unsupported"
)

// ActionRecorder receives one observation per executed action.
type ActionRecorder interface {
	RecordAction(action, status string, duration time.Duration)
}

// Outcome 单个动作的执行结果
type Outcome struct {
	Call     *cp.Call      `json:"call"`
	Done     bool          `json:"done"`
	Duration time.Duration `json:"duration"`
}

// Executor turns one call-syntax action into driver commands. Coordinates
// are normalized (0..1) and scaled by the viewport.
type Executor struct {
	driver   BrowserDriver
	sink     LogSink
	config   BrowserConfig
	recorder ActionRecorder
	logger   *zap.Logger
}

// ExecutorOption 配置选项
type ExecutorOption func(*Executor)

// WithLogSink publishes run log lines to sink.
func WithLogSink(sink LogSink) ExecutorOption {
	return func(e *Executor) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithActionRecorder reports every action to r.
func WithActionRecorder(r ActionRecorder) ExecutorOption {
	return func(e *Executor) {
		e.recorder = r
	}
}

// NewExecutor 创建动作执行器
func NewExecutor(driver BrowserDriver, config BrowserConfig, logger *zap.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultBrowserConfig()
	if config.ViewportWidth <= 0 || config.ViewportHeight <= 0 {
		config.ViewportWidth, config.ViewportHeight = def.ViewportWidth, def.ViewportHeight
	}
	if config.ScrollMultiplier <= 0 {
		config.ScrollMultiplier = def.ScrollMultiplier
	}
	if config.MaxWait <= 0 {
		config.MaxWait = def.MaxWait
	}
	e := &Executor{
		driver: driver,
		sink:   NopSink{},
		config: config,
		logger: logger.With(zap.String("component", "action_executor")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsTerminal reports whether name ends a run.
func IsTerminal(name string) bool {
	return name == actionspace.ActionFinalAnswer || strings.Contains(strings.ToUpper(name), "TERMINATE")
}

// Execute parses actionText, takes its first call and performs it.
//
// Unparseable text returns a PARSE_FAILED error, actions outside the canonical
// vocabulary UNSUPPORTED_ACTION, and driver or argument failures
// EXECUTION_FAILED. Every failure is also published to the run log.
func (e *Executor) Execute(ctx context.Context, runID, actionText string) (*Outcome, error) {
	calls := cp.ParseCalls(actionText)
	if len(calls) == 0 {
		e.publish(ctx, runID, fmt.Sprintf("Parser Error: Could not parse action '%s'", actionText))
		e.record("", StatusUnparsed, 0)
		return nil, types.Errorf(types.ErrParseFailed, "could not parse action %q", actionText)
	}
	return e.ExecuteCall(ctx, runID, calls[0])
}

// ExecuteCall performs an already parsed call.
func (e *Executor) ExecuteCall(ctx context.Context, runID string, call *cp.Call) (*Outcome, error) {
	start := time.Now()
	out := &Outcome{Call: call}

	e.publish(ctx, runID, fmt.Sprintf("Executing: %s with params: %s", call.Name, formatParams(call)))
	e.logger.Debug("executing action",
		zap.String("run_id", runID),
		zap.String("action", call.String()),
	)

	if IsTerminal(call.Name) {
		out.Done = true
		e.record(call.Name, StatusTerminal, 0)
		return out, nil
	}

	actx := ctx
	if e.config.ActionTimeout > 0 && call.Name != actionspace.ActionWait {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, e.config.ActionTimeout)
		defer cancel()
	}

	actx, span := tracer.Start(actx, "browser.action", trace.WithAttributes(
		attribute.String("churninator.run_id", runID),
		attribute.String("browser.action", call.Name),
	))
	err := e.dispatch(actx, call)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	out.Duration = time.Since(start)
	if err == nil {
		e.record(call.Name, StatusOK, out.Duration)
		return out, nil
	}

	status := StatusFailed
	code := types.ErrExecutionFailed
	if types.IsErrorCode(err, types.ErrUnsupportedAction) {
		status = StatusUnsupported
		code = types.ErrUnsupportedAction
	}
	e.record(call.Name, status, out.Duration)
	e.logger.Error("action failed",
		zap.String("run_id", runID),
		zap.String("action", call.String()),
		zap.Error(err),
	)
	e.publish(ctx, runID, fmt.Sprintf("Execution Error: Failed to execute %s. Reason: %v", call.Name, err))
	if code == types.ErrUnsupportedAction {
		return out, err
	}
	return out, types.NewError(code, "failed to execute "+call.Name).WithAction(call.Name).WithCause(err)
}

func (e *Executor) dispatch(ctx context.Context, call *cp.Call) error {
	switch strings.ToLower(call.Name) {
	case actionspace.ActionClick:
		return e.click(ctx, call, ButtonLeft, 1)
	case actionspace.ActionDoubleClick:
		return e.click(ctx, call, ButtonLeft, 2)
	case actionspace.ActionRightClick:
		return e.click(ctx, call, ButtonRight, 1)
	case actionspace.ActionMoveMouse:
		x, y, err := e.point(ctx, call, actionspace.ParamX, actionspace.ParamY, actionspace.ParamFromCoord)
		if err != nil {
			return err
		}
		return e.driver.MoveMouse(ctx, x, y)
	case actionspace.ActionDrag:
		return e.drag(ctx, call)
	case actionspace.ActionType:
		text, err := requireParam(call, actionspace.ParamText)
		if err != nil {
			return err
		}
		s, ok := text.AsString()
		if !ok {
			s = text.Literal()
		}
		return e.driver.Type(ctx, s, e.config.TypeDelay)
	case actionspace.ActionPress:
		return e.press(ctx, call)
	case actionspace.ActionScroll:
		return e.scroll(ctx, call)
	case actionspace.ActionWait:
		return e.wait(ctx, call)
	case actionspace.ActionNavigateBack:
		return e.driver.Back(ctx)
	default:
		return types.Errorf(types.ErrUnsupportedAction, "action '%s' is not implemented by the executor", call.Name).
			WithAction(call.Name)
	}
}

func (e *Executor) click(ctx context.Context, call *cp.Call, button MouseButton, count int) error {
	x, y, err := e.point(ctx, call, actionspace.ParamX, actionspace.ParamY, actionspace.ParamFromCoord)
	if err != nil {
		return err
	}
	return e.driver.Click(ctx, x, y, button, count)
}

func (e *Executor) drag(ctx context.Context, call *cp.Call) error {
	if call.Params.Has(actionspace.ParamFromCoord) {
		fx, fy, err := e.pair(ctx, call, actionspace.ParamFromCoord)
		if err != nil {
			return err
		}
		if err := e.driver.MoveMouse(ctx, fx, fy); err != nil {
			return err
		}
	}
	var (
		x, y float64
		err  error
	)
	if call.Params.Has(actionspace.ParamToCoord) {
		x, y, err = e.pair(ctx, call, actionspace.ParamToCoord)
	} else {
		x, y, err = e.point(ctx, call, actionspace.ParamX, actionspace.ParamY, "")
	}
	if err != nil {
		return err
	}
	return e.driver.DragTo(ctx, x, y)
}

func (e *Executor) press(ctx context.Context, call *cp.Call) error {
	keys, err := requireParam(call, actionspace.ParamKeys)
	if err != nil {
		return err
	}
	if s, ok := keys.AsString(); ok {
		return e.driver.Press(ctx, s)
	}
	items, ok := keys.AsList()
	if !ok || len(items) == 0 {
		return malformed(call, actionspace.ParamKeys, "expected key or list of keys")
	}
	chord := make([]string, len(items))
	for i, item := range items {
		s, ok := item.AsString()
		if !ok {
			s = item.Literal()
		}
		chord[i] = s
	}
	return e.driver.Press(ctx, strings.Join(chord, "+"))
}

func (e *Executor) scroll(ctx context.Context, call *cp.Call) error {
	amountV, err := requireParam(call, actionspace.ParamAmount)
	if err != nil {
		return err
	}
	amount, err := amountV.ToFloat()
	if err != nil {
		return malformed(call, actionspace.ParamAmount, err.Error())
	}
	dirV, err := requireParam(call, actionspace.ParamDirection)
	if err != nil {
		return err
	}
	dir, _ := dirV.AsString()

	delta := amount * float64(e.config.ScrollMultiplier)
	switch dir {
	case actionspace.DirectionDown:
		return e.driver.Scroll(ctx, 0, delta)
	case actionspace.DirectionUp:
		return e.driver.Scroll(ctx, 0, -delta)
	case actionspace.DirectionRight:
		return e.driver.Scroll(ctx, delta, 0)
	case actionspace.DirectionLeft:
		return e.driver.Scroll(ctx, -delta, 0)
	default:
		return malformed(call, actionspace.ParamDirection, fmt.Sprintf("unknown direction %s", dirV.Literal()))
	}
}

func (e *Executor) wait(ctx context.Context, call *cp.Call) error {
	v, ok := call.Param(actionspace.ParamSeconds)
	if !ok {
		v, ok = call.Param(cp.PositionalKey(0))
	}
	if !ok {
		return malformed(call, actionspace.ParamSeconds, "")
	}
	seconds, err := v.ToFloat()
	if err != nil || seconds < 0 {
		return malformed(call, actionspace.ParamSeconds, "expected non-negative number of seconds")
	}
	d := time.Duration(seconds * float64(time.Second))
	if d > e.config.MaxWait {
		d = e.config.MaxWait
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// point reads a normalized coordinate from xKey/yKey, falling back to the
// pair under pairKey, and scales it to pixels.
func (e *Executor) point(ctx context.Context, call *cp.Call, xKey, yKey, pairKey string) (float64, float64, error) {
	xv, hasX := call.Param(xKey)
	yv, hasY := call.Param(yKey)
	if !hasX || !hasY {
		if pairKey != "" && call.Params.Has(pairKey) {
			return e.pair(ctx, call, pairKey)
		}
		field := xKey
		if hasX {
			field = yKey
		}
		return 0, 0, malformed(call, field, "")
	}
	x, err := xv.ToFloat()
	if err != nil {
		return 0, 0, malformed(call, xKey, err.Error())
	}
	y, err := yv.ToFloat()
	if err != nil {
		return 0, 0, malformed(call, yKey, err.Error())
	}
	px, py := e.scale(ctx, x, y)
	return px, py, nil
}

func (e *Executor) pair(ctx context.Context, call *cp.Call, key string) (float64, float64, error) {
	v, _ := call.Param(key)
	items, ok := v.AsList()
	if !ok || len(items) != 2 {
		return 0, 0, malformed(call, key, "expected coordinate pair")
	}
	x, err := items[0].ToFloat()
	if err != nil {
		return 0, 0, malformed(call, key, err.Error())
	}
	y, err := items[1].ToFloat()
	if err != nil {
		return 0, 0, malformed(call, key, err.Error())
	}
	px, py := e.scale(ctx, x, y)
	return px, py, nil
}

func (e *Executor) scale(ctx context.Context, x, y float64) (float64, float64) {
	vp := e.viewport(ctx)
	return x * float64(vp.Width), y * float64(vp.Height)
}

// viewport asks the driver first and falls back to the configured size.
func (e *Executor) viewport(ctx context.Context) Viewport {
	vp, err := e.driver.Viewport(ctx)
	if err != nil || vp == nil || vp.Width <= 0 || vp.Height <= 0 {
		return Viewport{Width: e.config.ViewportWidth, Height: e.config.ViewportHeight}
	}
	return *vp
}

func (e *Executor) publish(ctx context.Context, runID, msg string) {
	if err := e.sink.Publish(ctx, runID, msg); err != nil {
		e.logger.Warn("publish run log failed", zap.String("run_id", runID), zap.Error(err))
	}
}

func (e *Executor) record(action, status string, d time.Duration) {
	if e.recorder != nil {
		e.recorder.RecordAction(action, status, d)
	}
}

func requireParam(call *cp.Call, key string) (cp.Value, error) {
	v, ok := call.Param(key)
	if !ok {
		return cp.Value{}, malformed(call, key, "")
	}
	return v, nil
}

func malformed(call *cp.Call, field, reason string) error {
	err := actionspace.ErrMissingArgument
	if reason != "" {
		err = fmt.Errorf("%w: %s", actionspace.ErrInvalidArgument, reason)
	}
	return &actionspace.MalformedActionError{Call: call.Clone(), Field: field, Err: err}
}

// formatParams renders parameters as a {'key': value} literal.
func formatParams(call *cp.Call) string {
	entries := call.Params.Entries()
	m := make([]cp.MapEntry, len(entries))
	for i, p := range entries {
		m[i] = cp.MapEntry{Key: cp.String(p.Key), Value: p.Value}
	}
	return cp.Map(m...).Literal()
}
