package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/churninator/churninator/agent/actionspace"
	cp "github.com/churninator/churninator/agent/callparser"
	"github.com/churninator/churninator/internal/telemetry"
	"github.com/churninator/churninator/types"
)

// ErrNoActions is returned by ProcessRecord for records whose action text
// holds no calls.
var ErrNoActions = errors.New("action has no calls")

// Config configures a Preprocessor.
type Config struct {
	// Workers bounds the number of records normalized concurrently.
	Workers int `json:"workers" yaml:"workers"`
	// StageDir prefixes every image path, e.g. "aguvis-stage1".
	StageDir string `json:"stage_dir" yaml:"stage_dir"`
	// SkipEmpty drops records whose action has no calls. When false they
	// are written with an empty action.
	SkipEmpty bool `json:"skip_empty" yaml:"skip_empty"`
	// BatchSize is the number of records held in memory at once.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	// Resolution is passed to the normalizer. Training coordinates stay
	// normalized, so the default is 1x1.
	Resolution actionspace.Resolution `json:"resolution" yaml:"resolution"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:    4,
		StageDir:   "aguvis-stage1",
		SkipEmpty:  true,
		BatchSize:  1024,
		Resolution: actionspace.Resolution{Width: 1, Height: 1},
	}
}

// Recorder receives per-record outcomes and run durations.
type Recorder interface {
	RecordPreprocess(status string)
	RecordPreprocessRun(d time.Duration)
}

// Preprocessor converts raw trajectory records into the canonical action
// space.
type Preprocessor struct {
	config     Config
	normalizer *actionspace.Normalizer
	recorder   Recorder
	logger     *zap.Logger
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithRecorder reports outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(p *Preprocessor) { p.recorder = r }
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *actionspace.Normalizer) Option {
	return func(p *Preprocessor) { p.normalizer = n }
}

// NewPreprocessor creates a preprocessor. Zero Workers, BatchSize or
// Resolution fall back to the defaults.
func NewPreprocessor(config Config, logger *zap.Logger, opts ...Option) *Preprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.Resolution == (actionspace.Resolution{}) {
		config.Resolution = defaults.Resolution
	}
	p := &Preprocessor{
		config: config,
		logger: logger.With(zap.String("component", "preprocessor")),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.normalizer == nil {
		p.normalizer = actionspace.NewNormalizer(logger)
	}
	return p
}

// ProcessRecord converts one record. It returns ErrNoActions when the action
// text holds no calls and the normalizer error when any call is malformed.
func (p *Preprocessor) ProcessRecord(raw RawRecord) (ProcessedRecord, error) {
	out := ProcessedRecord{
		ImagePath:   imagePath(p.config.StageDir, raw.Image),
		Instruction: raw.Instruction,
	}
	calls := cp.ParseCalls(raw.Action)
	if len(calls) == 0 {
		return out, ErrNoActions
	}
	calls, err := p.normalizer.Normalize(calls, p.config.Resolution)
	if err != nil {
		return out, err
	}
	out.Action = cp.Join(calls)
	return out, nil
}

// result is the outcome of one input line.
type result struct {
	record ProcessedRecord
	status string
}

// Process reads JSONL records from r and writes converted records to w in
// input order. Bad records are skipped and counted; only I/O failures and
// context cancellation abort the run.
func (p *Preprocessor) Process(ctx context.Context, r io.Reader, w io.Writer) (stats Stats, err error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "dataset.preprocess",
		attribute.String("dataset.stage_dir", p.config.StageDir),
		attribute.Int("dataset.workers", p.config.Workers),
	)
	defer func() {
		span.SetAttributes(
			attribute.Int("dataset.read", stats.Read),
			attribute.Int("dataset.written", stats.Written),
			attribute.Int("dataset.empty", stats.Empty),
			attribute.Int("dataset.errors", stats.Errors),
		)
		telemetry.EndSpan(span, err)
		if p.recorder != nil {
			p.recorder.RecordPreprocessRun(time.Since(start))
		}
	}()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	batch := make([]inputLine, 0, p.config.BatchSize)
	line := 0
	flushBatch := func() error {
		results, err := p.processBatch(ctx, batch)
		if err != nil {
			return err
		}
		for _, res := range results {
			stats.add(res.status)
			p.record(res.status)
			if res.status != StatusWritten {
				continue
			}
			if err := enc.Encode(res.record); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		stats.Read++
		batch = append(batch, inputLine{number: line, raw: bytes.Clone(raw)})
		if len(batch) == p.config.BatchSize {
			if err := flushBatch(); err != nil {
				return stats, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read records: %w", err)
	}
	if len(batch) > 0 {
		if err := flushBatch(); err != nil {
			return stats, err
		}
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}

	p.logger.Info("preprocessing complete",
		zap.Int("read", stats.Read),
		zap.Int("written", stats.Written),
		zap.Int("empty", stats.Empty),
		zap.Int("errors", stats.Errors),
		zap.Duration("duration", time.Since(start)))
	if stats.Errors > 0 {
		p.logger.Warn("encountered action conversion errors", zap.Int("errors", stats.Errors))
	}
	return stats, nil
}

// inputLine is a non-blank input line and its 1-based line number.
type inputLine struct {
	number int
	raw    []byte
}

// processBatch converts lines concurrently; results keep the input order.
func (p *Preprocessor) processBatch(ctx context.Context, lines []inputLine) ([]result, error) {
	results := make([]result, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)
	for i := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.processLine(lines[i].raw, lines[i].number)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Preprocessor) processLine(raw []byte, line int) result {
	var rec RawRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		err = types.NewError(types.ErrInvalidRecord, "record is not valid JSON").WithCause(err)
		p.logger.Warn("skipping record", zap.Int("line", line), zap.Error(err))
		return result{status: StatusError}
	}

	out, err := p.ProcessRecord(rec)
	switch {
	case errors.Is(err, ErrNoActions):
		if p.config.SkipEmpty {
			return result{status: StatusEmpty}
		}
		return result{record: out, status: StatusWritten}
	case err != nil:
		p.logger.Warn("skipping record due to conversion error",
			zap.Int("line", line),
			zap.String("action", rec.Action),
			zap.Error(err))
		return result{status: StatusError}
	}
	return result{record: out, status: StatusWritten}
}

func (p *Preprocessor) record(status string) {
	if p.recorder != nil {
		p.recorder.RecordPreprocess(status)
	}
}

// ProcessFile converts inPath into outPath, creating the output directory.
func (p *Preprocessor) ProcessFile(ctx context.Context, inPath, outPath string) (Stats, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return Stats{}, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Stats{}, fmt.Errorf("create output dir: %w", err)
		}
	}
	out, err := os.Create(outPath)
	if err != nil {
		return Stats{}, fmt.Errorf("create output: %w", err)
	}

	p.logger.Info("processing dataset",
		zap.String("input", inPath),
		zap.String("output", outPath))

	stats, err := p.Process(ctx, in, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	return stats, err
}
