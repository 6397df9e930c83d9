// Package churninator provides a top-level convenience entry point for
// assembling a browser agent and for one-shot action normalization.
//
// Usage:
//
//	import "github.com/churninator/churninator"
//
//	agent, err := churninator.NewAgent(driver, provider)
//	agent, err := churninator.NewAgent(driver, provider,
//	    churninator.WithConfig(cfg),
//	    churninator.WithSink(publisher),
//	)
//	canonical, err := churninator.NormalizeText("pyautogui.click(0.1, 0.2)", actionspace.DefaultResolution)
package churninator

import (
	"go.uber.org/zap"

	"github.com/churninator/churninator/agent/actionspace"
	"github.com/churninator/churninator/agent/browser"
	"github.com/churninator/churninator/agent/callparser"
	"github.com/churninator/churninator/config"
	"github.com/churninator/churninator/types"
)

// Option configures the agent created by [NewAgent].
type Option func(*options)

type options struct {
	cfg      *config.Config
	logger   *zap.Logger
	sink     browser.LogSink
	recorder browser.ActionRecorder
	parser   browser.ResponseParser
}

// WithConfig sets the executor and loop configuration. Defaults to
// [config.DefaultConfig].
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSink sends run logs (and frames, when the sink is a
// [browser.FrameSink]) to sink, e.g. a logchannel.Publisher.
func WithSink(sink browser.LogSink) Option {
	return func(o *options) { o.sink = sink }
}

// WithActionRecorder reports every executed action, e.g. to a
// metrics.Collector.
func WithActionRecorder(r browser.ActionRecorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithParser overrides the parser selected by the configured provider.
func WithParser(p browser.ResponseParser) Option {
	return func(o *options) { o.parser = p }
}

// NewAgent wires a driver and a vision provider into an
// [browser.AgenticBrowser].
func NewAgent(driver browser.BrowserDriver, provider browser.VisionProvider, opts ...Option) (*browser.AgenticBrowser, error) {
	if driver == nil {
		return nil, types.NewError(types.ErrInvalidConfig, "browser driver is required")
	}
	if provider == nil {
		return nil, types.NewError(types.ErrInvalidConfig, "vision provider is required")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		o.cfg = config.DefaultConfig()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.parser == nil {
		parser, err := browser.ParserForProvider(o.cfg.Agent.Provider)
		if err != nil {
			return nil, err
		}
		o.parser = parser
	}

	var execOpts []browser.ExecutorOption
	if o.sink != nil {
		execOpts = append(execOpts, browser.WithLogSink(o.sink))
	}
	if o.recorder != nil {
		execOpts = append(execOpts, browser.WithActionRecorder(o.recorder))
	}

	executor := browser.NewExecutor(driver, o.cfg.Executor.BrowserConfig(), o.logger, execOpts...)
	proposer := browser.NewVisionProposer(provider, o.parser, o.logger)
	return browser.NewAgenticBrowser(driver, proposer, executor, o.sink, o.cfg.Agent.LoopConfig(), o.logger), nil
}

// NormalizeText parses every call in text, rewrites them onto the canonical
// action space and joins the results with a single space. On a
// *actionspace.BatchError the joined text still holds every call, malformed
// ones unchanged.
func NormalizeText(text string, res actionspace.Resolution) (string, error) {
	calls, err := actionspace.Normalize(callparser.ParseCalls(text), res)
	return callparser.Join(calls), err
}
