package evaluation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/churninator/churninator/agent/actionspace"
	"github.com/churninator/churninator/types"
)

var tracer = otel.Tracer("github.com/churninator/churninator/agent/evaluation")

// Sample is one grounding benchmark item: a model completion for an
// instruction and the pixel box of the element it should click.
type Sample struct {
	ID          string `json:"id"`
	Instruction string `json:"instruction"`
	Completion  string `json:"completion"`
	// BBox is x1, y1, x2, y2 in pixels. With zero image size it is taken as
	// already normalized.
	BBox        [4]float64 `json:"bbox"`
	ImageWidth  int        `json:"image_width,omitempty"`
	ImageHeight int        `json:"image_height,omitempty"`
	// ExpectedAction is the ground-truth call, when the dataset provides one.
	ExpectedAction string `json:"expected_action,omitempty"`
}

// normalizedBBox returns the target region in normalized coordinates.
func (s *Sample) normalizedBBox() (BBox, error) {
	if s.ImageWidth == 0 && s.ImageHeight == 0 {
		return BBox{X1: s.BBox[0], Y1: s.BBox[1], X2: s.BBox[2], Y2: s.BBox[3]}, nil
	}
	return NormalizeBBox(s.BBox, s.ImageWidth, s.ImageHeight)
}

// SampleResult is the graded outcome of one sample.
type SampleResult struct {
	ID      string             `json:"id"`
	Outcome string             `json:"outcome"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// BenchmarkReport aggregates a benchmark run.
type BenchmarkReport struct {
	Stage          int                `json:"stage"`
	Total          int                `json:"total"`
	Correct        int                `json:"correct"`
	Incorrect      int                `json:"incorrect"`
	Unparsed       int                `json:"unparsed"`
	NonClick       int                `json:"non_click"`
	Invalid        int                `json:"invalid"`
	Accuracy       float64            `json:"accuracy"`
	MetricAverages map[string]float64 `json:"metric_averages,omitempty"`
	Percentiles    map[string]float64 `json:"percentiles,omitempty"`
	Results        []SampleResult     `json:"results,omitempty"`
	StartTime      time.Time          `json:"start_time"`
	Duration       time.Duration      `json:"duration"`
}

// BenchmarkConfig configures a benchmark run.
type BenchmarkConfig struct {
	// Stage selects the completion format: 1 free text, 2 <code> block.
	Stage       int `json:"stage" yaml:"stage"`
	Concurrency int `json:"concurrency" yaml:"concurrency"`
	// Normalize maps predictions to the canonical vocabulary before grading.
	Normalize bool `json:"normalize" yaml:"normalize"`
	// KeepResults includes per-sample results in the report.
	KeepResults bool `json:"keep_results" yaml:"keep_results"`
}

// DefaultBenchmarkConfig returns sensible defaults.
func DefaultBenchmarkConfig() BenchmarkConfig {
	return BenchmarkConfig{
		Stage:       1,
		Concurrency: 5,
	}
}

// PredictionRecorder receives one outcome per graded sample.
type PredictionRecorder interface {
	RecordPrediction(outcome string)
}

// Benchmark grades model completions against ground-truth click targets.
type Benchmark struct {
	config     BenchmarkConfig
	registry   *MetricRegistry
	normalizer *actionspace.Normalizer
	recorder   PredictionRecorder
	logger     *zap.Logger
}

// BenchmarkOption configures a Benchmark.
type BenchmarkOption func(*Benchmark)

// WithMetricRegistry replaces the default metric registry.
func WithMetricRegistry(registry *MetricRegistry) BenchmarkOption {
	return func(b *Benchmark) { b.registry = registry }
}

// WithPredictionRecorder reports each outcome to r.
func WithPredictionRecorder(r PredictionRecorder) BenchmarkOption {
	return func(b *Benchmark) { b.recorder = r }
}

// WithNormalizer sets the normalizer used when config.Normalize is on.
func WithNormalizer(n *actionspace.Normalizer) BenchmarkOption {
	return func(b *Benchmark) { b.normalizer = n }
}

// NewBenchmark creates a benchmark. The default registry holds
// click_accuracy, action_match and parse_rate.
func NewBenchmark(config BenchmarkConfig, logger *zap.Logger, opts ...BenchmarkOption) *Benchmark {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.Stage == 0 {
		config.Stage = 1
	}
	b := &Benchmark{
		config: config,
		logger: logger.With(zap.String("component", "benchmark")),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.normalizer == nil {
		b.normalizer = actionspace.NewNormalizer(logger)
	}
	if b.registry == nil {
		b.registry = NewMetricRegistry()
		click := NewClickAccuracyMetric()
		if config.Normalize {
			click.Normalizer = b.normalizer
		}
		b.registry.Register(click)
		b.registry.Register(NewActionMatchMetric(b.normalizer))
		b.registry.Register(&ParseRateMetric{})
	}
	return b
}

// Run grades every sample and aggregates the outcomes. Samples are graded
// concurrently; the result order follows the input. A cancelled context
// stops the run and returns the context error.
func (b *Benchmark) Run(ctx context.Context, samples []Sample) (report *BenchmarkReport, err error) {
	startTime := time.Now()
	ctx, span := tracer.Start(ctx, "evaluation.benchmark", trace.WithAttributes(
		attribute.Int("evaluation.samples", len(samples)),
		attribute.Int("evaluation.stage", b.config.Stage),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Float64("evaluation.accuracy", report.Accuracy))
		}
		span.End()
	}()

	results := make([]SampleResult, len(samples))

	sem := make(chan struct{}, b.config.Concurrency)
	var wg sync.WaitGroup

	for i := range samples {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}
			results[idx] = b.grade(ctx, &samples[idx])
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report = b.summarize(results)
	report.StartTime = startTime
	report.Duration = time.Since(startTime)

	b.logger.Info("benchmark completed",
		zap.Int("total", report.Total),
		zap.Int("correct", report.Correct),
		zap.Float64("accuracy", report.Accuracy),
		zap.Duration("duration", report.Duration))

	return report, nil
}

func (b *Benchmark) grade(ctx context.Context, s *Sample) SampleResult {
	result := SampleResult{ID: s.ID}

	bbox, err := s.normalizedBBox()
	if err != nil {
		result.Outcome = "invalid"
		result.Error = err.Error()
		b.logger.Warn("invalid sample", zap.String("sample_id", s.ID), zap.Error(err))
		return result
	}

	var normalizer *actionspace.Normalizer
	if b.config.Normalize {
		normalizer = b.normalizer
	}
	result.Outcome = ClassifyClick(s.Completion, b.config.Stage, bbox, normalizer)

	input := NewEvalInput(s.Instruction).
		WithBBox(bbox).
		WithStage(b.config.Stage).
		WithExpected(s.ExpectedAction)
	metrics, err := b.registry.ComputeAll(ctx, input, NewEvalOutput(s.Completion))
	if err == nil {
		result.Metrics = metrics.Values
		if len(metrics.Errors) > 0 {
			b.logger.Debug("metric errors",
				zap.String("sample_id", s.ID),
				zap.Strings("errors", metrics.Errors))
		}
	}

	if b.recorder != nil {
		b.recorder.RecordPrediction(result.Outcome)
	}

	b.logger.Debug("sample graded",
		zap.String("sample_id", s.ID),
		zap.String("outcome", result.Outcome))
	return result
}

func (b *Benchmark) summarize(results []SampleResult) *BenchmarkReport {
	report := &BenchmarkReport{
		Stage:          b.config.Stage,
		Total:          len(results),
		MetricAverages: make(map[string]float64),
		Percentiles:    make(map[string]float64),
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range results {
		switch r.Outcome {
		case OutcomeCorrect:
			report.Correct++
		case OutcomeIncorrect:
			report.Incorrect++
		case OutcomeUnparsed:
			report.Unparsed++
		case OutcomeNonClick:
			report.NonClick++
		default:
			report.Invalid++
		}
		for name, v := range r.Metrics {
			sums[name] += v
			counts[name]++
		}
	}

	if report.Total > 0 {
		report.Accuracy = float64(report.Correct) / float64(report.Total)
	}
	for name, sum := range sums {
		report.MetricAverages[name] = sum / float64(counts[name])
	}

	if b.config.KeepResults {
		report.Results = results
	}

	var matches []float64
	for _, r := range results {
		if v, ok := r.Metrics["action_match"]; ok {
			matches = append(matches, v)
		}
	}
	if len(matches) > 0 {
		sort.Float64s(matches)
		report.Percentiles["action_match_p50"] = calculatePercentile(matches, 50)
		report.Percentiles["action_match_p90"] = calculatePercentile(matches, 90)
	}

	return report
}

// ReadSamples decodes JSONL benchmark samples. Blank lines are skipped.
func ReadSamples(r io.Reader) ([]Sample, error) {
	var samples []Sample
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var s Sample
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, types.Errorf(types.ErrInvalidRecord, "sample on line %d", line).WithCause(err)
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("sample-%d", line)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// calculatePercentile calculates the p-th percentile of sorted values.
func calculatePercentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	index := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
