package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/churninator/churninator/agent/actionspace"
	"github.com/churninator/churninator/config"
	"github.com/churninator/churninator/internal/metrics"
	"github.com/churninator/churninator/internal/telemetry"
)

// command is one parsed invocation.
type command struct {
	name       string
	args       []string
	configPath string
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

// flags returns a flag set that also accepts --config after the command name.
func (c *command) flags() *flag.FlagSet {
	fs := flag.NewFlagSet(c.name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.StringVar(&c.configPath, "config", c.configPath, "Path to config file")
	return fs
}

func (c *command) fail(format string, args ...any) int {
	fmt.Fprintf(c.stderr, "Error: "+format+"\n", args...)
	return exitError
}

func (c *command) writeJSON(v any) int {
	enc := json.NewEncoder(c.stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return c.fail("encode output: %v", err)
	}
	return exitOK
}

// readText joins the positional arguments, or reads stdin when there are
// none or the only one is "-".
func (c *command) readText(args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

// isSet reports whether the named flag was given on the command line.
func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// =============================================================================
// 🧰 运行环境
// =============================================================================

// session holds what every command builds from the loaded configuration.
type session struct {
	cfg       *config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	collector *metrics.Collector
	providers *telemetry.Providers
	span      trace.Span
}

// setup loads and validates the configuration, then builds the logger,
// metrics collector and telemetry providers.
func (c *command) setup() (*session, error) {
	loader := config.NewLoader()
	if c.configPath != "" {
		loader = loader.WithConfigPath(c.configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	rt := &session{
		cfg:    cfg,
		logger: initLogger(cfg.Log),
	}

	if cfg.Metrics.Enabled {
		rt.registry = prometheus.NewRegistry()
		rt.collector = metrics.NewCollector(cfg.Metrics.Namespace, rt.registry, rt.logger)
	}

	providers, err := telemetry.Init(cfg.Telemetry, Version, rt.logger)
	if err != nil {
		rt.logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	rt.providers = providers

	rt.logger.Debug("command started",
		zap.String("command", c.name),
		zap.String("version", Version),
	)
	return rt, nil
}

// trace opens the command span. close ends it before telemetry shutdown so
// it is exported.
func (rt *session) trace(ctx context.Context, command string) context.Context {
	ctx, rt.span = telemetry.StartSpan(ctx, "cli."+command, telemetry.AttrCommand.String(command))
	return ctx
}

// close flushes metrics to the textfile, shuts telemetry down and syncs the
// logger.
func (rt *session) close() {
	if rt.registry != nil && rt.cfg.Metrics.TextfilePath != "" {
		if err := prometheus.WriteToTextfile(rt.cfg.Metrics.TextfilePath, rt.registry); err != nil {
			rt.logger.Warn("failed to write metrics textfile",
				zap.String("path", rt.cfg.Metrics.TextfilePath),
				zap.Error(err))
		}
	}

	if rt.span != nil {
		telemetry.EndSpan(rt.span, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.providers.Shutdown(ctx); err != nil {
		rt.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}

	_ = rt.logger.Sync()
}

func (rt *session) recordParse(source string, calls int) {
	if rt.collector != nil {
		rt.collector.RecordParse(source, calls)
	}
}

// normalizer returns a normalizer reporting to the collector when metrics
// are enabled.
func (rt *session) normalizer() *actionspace.Normalizer {
	if rt.collector == nil {
		return actionspace.NewNormalizer(rt.logger)
	}
	return actionspace.NewNormalizer(rt.logger, actionspace.WithRecorder(rt.collector))
}
