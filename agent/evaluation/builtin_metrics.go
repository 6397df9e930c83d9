package evaluation

import (
	"context"
	"errors"

	"github.com/churninator/churninator/agent/actionspace"
	cp "github.com/churninator/churninator/agent/callparser"
)

// ErrMissingBBox is returned by ClickAccuracyMetric for inputs without a
// target region.
var ErrMissingBBox = errors.New("input has no bounding box")

// ClickAccuracyMetric 点击准确率指标
// 第一个预测动作是落在目标区域内的 click 时为 1.0，否则为 0.0
type ClickAccuracyMetric struct {
	// Normalizer 不为 nil 时先归一化预测动作
	Normalizer *actionspace.Normalizer
}

// NewClickAccuracyMetric 创建点击准确率指标
func NewClickAccuracyMetric() *ClickAccuracyMetric {
	return &ClickAccuracyMetric{}
}

// Name 返回指标名称
func (m *ClickAccuracyMetric) Name() string {
	return "click_accuracy"
}

// Compute 计算点击准确率
func (m *ClickAccuracyMetric) Compute(ctx context.Context, input *EvalInput, output *EvalOutput) (float64, error) {
	if input == nil || input.BBox == nil {
		return 0, ErrMissingBBox
	}
	if output == nil {
		return 0, nil
	}
	if ClassifyClick(output.Response, input.Stage, *input.BBox, m.Normalizer) == OutcomeCorrect {
		return 1.0, nil
	}
	return 0.0, nil
}

// ActionMatchMetric 动作匹配指标
// 预测与期望动作归一化后名称与参数完全一致时为 1.0；
// 名称一致但参数不同时为 0.5
type ActionMatchMetric struct {
	normalizer *actionspace.Normalizer
}

// NewActionMatchMetric 创建动作匹配指标
func NewActionMatchMetric(normalizer *actionspace.Normalizer) *ActionMatchMetric {
	if normalizer == nil {
		normalizer = actionspace.NewNormalizer(nil)
	}
	return &ActionMatchMetric{normalizer: normalizer}
}

// Name 返回指标名称
func (m *ActionMatchMetric) Name() string {
	return "action_match"
}

// Compute 计算动作匹配度。没有期望动作时返回 1.0（默认通过）。
func (m *ActionMatchMetric) Compute(ctx context.Context, input *EvalInput, output *EvalOutput) (float64, error) {
	if input == nil || output == nil {
		return 0, nil
	}
	if input.Expected == "" {
		return 1.0, nil
	}

	expected, ok := cp.ParseCall(input.Expected)
	if !ok {
		return 0, errors.New("expected action is not call syntax")
	}
	if err := m.normalizer.NormalizeCall(expected); err != nil {
		return 0, err
	}

	predicted := ExtractPrediction(output.Response, input.Stage)
	if len(predicted) == 0 {
		return 0.0, nil
	}
	got := predicted[0]
	if err := m.normalizer.NormalizeCall(got); err != nil {
		return 0.0, nil
	}

	switch {
	case got.Equal(expected):
		return 1.0, nil
	case got.Name == expected.Name:
		return 0.5, nil
	default:
		return 0.0, nil
	}
}

// ParseRateMetric 可解析率指标：输出中至少能提取一个动作时为 1.0
type ParseRateMetric struct{}

// Name 返回指标名称
func (m *ParseRateMetric) Name() string {
	return "parse_rate"
}

// Compute 计算可解析率
func (m *ParseRateMetric) Compute(ctx context.Context, input *EvalInput, output *EvalOutput) (float64, error) {
	if output == nil {
		return 0, nil
	}
	stage := 1
	if input != nil {
		stage = input.Stage
	}
	if len(ExtractPrediction(output.Response, stage)) > 0 {
		return 1.0, nil
	}
	return 0.0, nil
}

// LatencyMetric 延迟指标
type LatencyMetric struct {
	// ThresholdMs 延迟阈值（毫秒），用于归一化
	// 如果设置，返回值为 max(0, 1 - latency/threshold)
	// 如果不设置（0），直接返回毫秒数
	ThresholdMs float64
}

// NewLatencyMetric 创建延迟指标
func NewLatencyMetric() *LatencyMetric {
	return &LatencyMetric{}
}

// NewLatencyMetricWithThreshold 创建带阈值的延迟指标
func NewLatencyMetricWithThreshold(thresholdMs float64) *LatencyMetric {
	return &LatencyMetric{ThresholdMs: thresholdMs}
}

// Name 返回指标名称
func (m *LatencyMetric) Name() string {
	return "latency"
}

// Compute 计算延迟
func (m *LatencyMetric) Compute(ctx context.Context, input *EvalInput, output *EvalOutput) (float64, error) {
	if output == nil {
		return 0, nil
	}

	latencyMs := float64(output.Latency.Milliseconds())
	if m.ThresholdMs > 0 {
		score := 1.0 - (latencyMs / m.ThresholdMs)
		if score < 0 {
			score = 0
		}
		return score, nil
	}
	return latencyMs, nil
}
