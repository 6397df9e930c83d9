package evaluation

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Metric 评估指标接口
type Metric interface {
	// Name 指标名称
	Name() string
	// Compute 计算指标值
	Compute(ctx context.Context, input *EvalInput, output *EvalOutput) (float64, error)
}

// EvalInput 评估输入：一条指令及其标注
type EvalInput struct {
	Instruction string `json:"instruction"`
	// Expected is the ground-truth action in call syntax.
	Expected string `json:"expected,omitempty"`
	// BBox is the normalized ground-truth target region.
	BBox *BBox `json:"bbox,omitempty"`
	// Stage selects how predictions are extracted (1: free text, 2: <code> block).
	Stage int `json:"stage"`
}

// EvalOutput 模型输出
type EvalOutput struct {
	Response string        `json:"response"`
	Latency  time.Duration `json:"latency"`
}

// NewEvalInput 创建 stage 1 的评估输入
func NewEvalInput(instruction string) *EvalInput {
	return &EvalInput{Instruction: instruction, Stage: 1}
}

// WithExpected 设置期望动作
func (e *EvalInput) WithExpected(expected string) *EvalInput {
	e.Expected = expected
	return e
}

// WithBBox 设置目标区域
func (e *EvalInput) WithBBox(b BBox) *EvalInput {
	e.BBox = &b
	return e
}

// WithStage 设置输出格式阶段
func (e *EvalInput) WithStage(stage int) *EvalInput {
	e.Stage = stage
	return e
}

// NewEvalOutput 创建模型输出
func NewEvalOutput(response string) *EvalOutput {
	return &EvalOutput{Response: response}
}

// WithLatency 设置延迟
func (e *EvalOutput) WithLatency(latency time.Duration) *EvalOutput {
	e.Latency = latency
	return e
}

// Scores 单个样本上各指标的取值。无法计算的指标只出现在 Errors 中。
type Scores struct {
	Values map[string]float64 `json:"values"`
	Errors []string           `json:"errors,omitempty"`
}

// Complete reports whether every metric produced a value.
func (s *Scores) Complete() bool { return len(s.Errors) == 0 }

// MetricRegistry 指标注册表，同名指标后注册者覆盖先注册者
type MetricRegistry struct {
	metrics map[string]Metric
}

// NewMetricRegistry 创建指标注册表
func NewMetricRegistry() *MetricRegistry {
	return &MetricRegistry{metrics: make(map[string]Metric)}
}

// Register 注册指标
func (r *MetricRegistry) Register(metric Metric) {
	r.metrics[metric.Name()] = metric
}

// Get 获取指标
func (r *MetricRegistry) Get(name string) (Metric, bool) {
	m, ok := r.metrics[name]
	return m, ok
}

// List 列出所有指标名称（已排序）
func (r *MetricRegistry) List() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComputeAll 按名称顺序计算所有指标。单个指标失败只记入 Errors，
// 只有 context 取消会中止计算。
func (r *MetricRegistry) ComputeAll(ctx context.Context, input *EvalInput, output *EvalOutput) (*Scores, error) {
	scores := &Scores{Values: make(map[string]float64, len(r.metrics))}

	for _, name := range r.List() {
		if err := ctx.Err(); err != nil {
			return scores, err
		}
		value, err := r.metrics[name].Compute(ctx, input, output)
		if err != nil {
			scores.Errors = append(scores.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		scores.Values[name] = value
	}

	return scores, nil
}
