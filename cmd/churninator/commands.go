package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/churninator/churninator/agent/actionspace"
	"github.com/churninator/churninator/agent/browser"
	"github.com/churninator/churninator/agent/callparser"
	"github.com/churninator/churninator/agent/evaluation"
	"github.com/churninator/churninator/dataset"
	"github.com/churninator/churninator/internal/logchannel"
)

// =============================================================================
// 🔍 parse 命令
// =============================================================================

func runParse(_ context.Context, cmd *command) int {
	fs := cmd.flags()
	freeText := fs.Bool("free-text", false, "Scan model prose for calls")
	codeBlock := fs.Bool("code-block", false, "Read calls from the <code> block only")
	if err := fs.Parse(cmd.args); err != nil {
		return exitUsage
	}
	if *freeText && *codeBlock {
		fmt.Fprintln(cmd.stderr, "--free-text and --code-block are mutually exclusive")
		return exitUsage
	}

	rt, err := cmd.setup()
	if err != nil {
		return cmd.fail("%v", err)
	}
	defer rt.close()

	text, err := cmd.readText(fs.Args())
	if err != nil {
		return cmd.fail("%v", err)
	}

	var calls []*callparser.Call
	source := "text"
	switch {
	case *codeBlock:
		calls = callparser.ParseCodeBlock(text)
		source = "code_block"
	case *freeText:
		calls = callparser.ExtractCallsFromFreeText(text)
		source = "free_text"
	default:
		calls = callparser.ParseCalls(text)
	}
	rt.recordParse(source, len(calls))

	if calls == nil {
		calls = []*callparser.Call{}
	}
	return cmd.writeJSON(calls)
}

// =============================================================================
// 🔄 normalize 命令
// =============================================================================

func runNormalize(_ context.Context, cmd *command) int {
	fs := cmd.flags()
	width := fs.Int("width", 0, "Target resolution width (default from config)")
	height := fs.Int("height", 0, "Target resolution height (default from config)")
	resolution := fs.String("resolution", "", "Target resolution as WIDTHxHEIGHT")
	if err := fs.Parse(cmd.args); err != nil {
		return exitUsage
	}

	rt, err := cmd.setup()
	if err != nil {
		return cmd.fail("%v", err)
	}
	defer rt.close()

	res := rt.cfg.Normalizer.Resolution()
	if *resolution != "" {
		if res, err = actionspace.ParseResolution(*resolution); err != nil {
			return cmd.fail("%v", err)
		}
	}
	if isSet(fs, "width") {
		res.Width = *width
	}
	if isSet(fs, "height") {
		res.Height = *height
	}

	text, err := cmd.readText(fs.Args())
	if err != nil {
		return cmd.fail("%v", err)
	}

	calls := callparser.ParseCalls(text)
	rt.recordParse("normalize", len(calls))

	out, err := rt.normalizer().Normalize(calls, res)
	var batch *actionspace.BatchError
	if err != nil && !errors.As(err, &batch) {
		return cmd.fail("%v", err)
	}

	for i, call := range out {
		if batch != nil && batch.Failed(i) {
			continue
		}
		fmt.Fprintln(cmd.stdout, call.String())
	}
	if batch != nil {
		for _, e := range batch.Errors {
			fmt.Fprintln(cmd.stderr, e.Error())
		}
		return exitError
	}
	return exitOK
}

// =============================================================================
// 📦 preprocess 命令
// =============================================================================

func runPreprocess(ctx context.Context, cmd *command) int {
	fs := cmd.flags()
	in := fs.String("in", "", "Raw JSONL input")
	out := fs.String("out", "", "Processed JSONL output")
	stageDir := fs.String("stage-dir", "", "Image path prefix (default from config)")
	workers := fs.Int("workers", 0, "Concurrent workers (default from config)")
	if err := fs.Parse(cmd.args); err != nil {
		return exitUsage
	}
	if *in == "" || *out == "" {
		fmt.Fprintln(cmd.stderr, "--in and --out are required")
		return exitUsage
	}

	rt, err := cmd.setup()
	if err != nil {
		return cmd.fail("%v", err)
	}
	defer rt.close()
	ctx = rt.trace(ctx, cmd.name)

	cfg := dataset.DefaultConfig()
	cfg.Workers = rt.cfg.Preprocess.Workers
	cfg.StageDir = rt.cfg.Preprocess.StageDir
	cfg.SkipEmpty = rt.cfg.Preprocess.SkipEmpty
	if isSet(fs, "stage-dir") {
		cfg.StageDir = *stageDir
	}
	if isSet(fs, "workers") {
		cfg.Workers = *workers
	}

	opts := []dataset.Option{dataset.WithNormalizer(rt.normalizer())}
	if rt.collector != nil {
		opts = append(opts, dataset.WithRecorder(rt.collector))
	}

	stats, err := dataset.NewPreprocessor(cfg, rt.logger, opts...).ProcessFile(ctx, *in, *out)
	if err != nil {
		return cmd.fail("%v", err)
	}
	return cmd.writeJSON(stats)
}

// =============================================================================
// 📊 eval 命令
// =============================================================================

func runEval(ctx context.Context, cmd *command) int {
	fs := cmd.flags()
	in := fs.String("in", "", "Samples JSONL")
	stage := fs.Int("stage", 0, "Completion format: 1 free text, 2 <code> block (default from config)")
	concurrency := fs.Int("concurrency", 0, "Concurrent graders (default from config)")
	normalize := fs.Bool("normalize", false, "Normalize predictions before scoring")
	results := fs.Bool("results", false, "Include per-sample results in the report")
	if err := fs.Parse(cmd.args); err != nil {
		return exitUsage
	}
	if *in == "" {
		fmt.Fprintln(cmd.stderr, "--in is required")
		return exitUsage
	}

	rt, err := cmd.setup()
	if err != nil {
		return cmd.fail("%v", err)
	}
	defer rt.close()
	ctx = rt.trace(ctx, cmd.name)

	cfg := rt.cfg.Eval.BenchmarkConfig()
	if isSet(fs, "stage") {
		cfg.Stage = *stage
	}
	if isSet(fs, "concurrency") {
		cfg.Concurrency = *concurrency
	}
	if isSet(fs, "normalize") {
		cfg.Normalize = *normalize
	}
	cfg.KeepResults = *results
	if cfg.Stage != 1 && cfg.Stage != 2 {
		fmt.Fprintf(cmd.stderr, "--stage must be 1 or 2, got %d\n", cfg.Stage)
		return exitUsage
	}

	f, err := os.Open(*in)
	if err != nil {
		return cmd.fail("open samples: %v", err)
	}
	defer f.Close()

	samples, err := evaluation.ReadSamples(f)
	if err != nil {
		return cmd.fail("%v", err)
	}

	opts := []evaluation.BenchmarkOption{evaluation.WithNormalizer(rt.normalizer())}
	if rt.collector != nil {
		opts = append(opts, evaluation.WithPredictionRecorder(rt.collector))
	}

	report, err := evaluation.NewBenchmark(cfg, rt.logger, opts...).Run(ctx, samples)
	if err != nil {
		return cmd.fail("%v", err)
	}

	rt.logger.Info("evaluation completed",
		zap.Int("total", report.Total),
		zap.Int("correct", report.Correct),
		zap.Float64("accuracy", report.Accuracy),
	)
	return cmd.writeJSON(report)
}

// =============================================================================
// 📡 logs 命令
// =============================================================================

func runLogs(ctx context.Context, cmd *command) int {
	fs := cmd.flags()
	runID := fs.String("run", "", "Run ID")
	follow := fs.Bool("follow", false, "Keep printing until the run ends")
	if err := fs.Parse(cmd.args); err != nil {
		return exitUsage
	}
	if *runID == "" {
		fmt.Fprintln(cmd.stderr, "--run is required")
		return exitUsage
	}

	rt, err := cmd.setup()
	if err != nil {
		return cmd.fail("%v", err)
	}
	defer rt.close()
	ctx = rt.trace(ctx, cmd.name)

	pubCfg := rt.cfg.Redis.PublisherConfig()
	pubCfg.HealthCheckInterval = 0
	publisher, err := logchannel.NewPublisher(pubCfg, rt.logger)
	if err != nil {
		return cmd.fail("%v", err)
	}
	defer publisher.Close()

	history, err := publisher.History(ctx, *runID)
	if err != nil {
		return cmd.fail("%v", err)
	}
	for _, line := range history {
		fmt.Fprintln(cmd.stdout, line)
	}
	if !*follow {
		return exitOK
	}

	sub, err := publisher.Subscribe(ctx, *runID)
	if err != nil {
		return cmd.fail("%v", err)
	}
	defer sub.Close()
	events := sub.Channel()

	logChannel := publisher.LogChannel(*runID)
	for {
		select {
		case <-ctx.Done():
			return exitOK
		case msg, ok := <-events:
			if !ok {
				return exitOK
			}
			if msg.Channel == logChannel {
				fmt.Fprintln(cmd.stdout, msg.Payload)
				continue
			}
			if msg.Payload == browser.EndOfFrames {
				return exitOK
			}
		}
	}
}
