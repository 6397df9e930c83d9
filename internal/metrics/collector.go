package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 解析指标
	callsParsed *prometheus.CounterVec
	parseMisses *prometheus.CounterVec

	// 归一化指标
	normalizations *prometheus.CounterVec

	// 预处理指标
	preprocessRecords  *prometheus.CounterVec
	preprocessDuration prometheus.Histogram

	// 执行指标
	actionsTotal   *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec

	// 评估指标
	predictions *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器。reg 为 nil 时注册到 prometheus.DefaultRegisterer。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 解析指标
	c.callsParsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_parsed_total",
			Help:      "Total number of calls extracted from text",
		},
		[]string{"source"},
	)

	c.parseMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_misses_total",
			Help:      "Total number of inputs that yielded no calls",
		},
		[]string{"source"},
	)

	// 归一化指标
	c.normalizations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_normalized_total",
			Help:      "Total number of normalized actions",
		},
		[]string{"canonical", "status"}, // status: rewritten, pass_through, malformed
	)

	// 预处理指标
	c.preprocessRecords = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preprocess_records_total",
			Help:      "Total number of dataset records processed",
		},
		[]string{"status"}, // status: written, empty, error
	)

	c.preprocessDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "preprocess_run_duration_seconds",
			Help:      "Dataset preprocessing run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
	)

	// 执行指标
	c.actionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executor_actions_total",
			Help:      "Total number of executed actions",
		},
		[]string{"action", "status"},
	)

	c.actionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "executor_action_duration_seconds",
			Help:      "Action execution duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"action"},
	)

	// 评估指标
	c.predictions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eval_predictions_total",
			Help:      "Total number of graded predictions",
		},
		[]string{"outcome"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🔍 解析指标记录
// =============================================================================

// RecordParse 记录一次解析，calls 为提取到的调用数
func (c *Collector) RecordParse(source string, calls int) {
	if calls == 0 {
		c.parseMisses.WithLabelValues(source).Inc()
		return
	}
	c.callsParsed.WithLabelValues(source).Add(float64(calls))
}

// =============================================================================
// 🔄 归一化指标记录
// =============================================================================

// RecordNormalization 记录一次动作归一化。canonical 对透传动作为原名称。
func (c *Collector) RecordNormalization(source, canonical, status string) {
	c.normalizations.WithLabelValues(canonical, status).Inc()
}

// =============================================================================
// 📦 预处理指标记录
// =============================================================================

// RecordPreprocess 记录一条数据集记录的处理结果
func (c *Collector) RecordPreprocess(status string) {
	c.preprocessRecords.WithLabelValues(status).Inc()
}

// RecordPreprocessRun 记录一次预处理运行耗时
func (c *Collector) RecordPreprocessRun(duration time.Duration) {
	c.preprocessDuration.Observe(duration.Seconds())
}

// =============================================================================
// 🖱️ 执行指标记录
// =============================================================================

// RecordAction 记录动作执行
func (c *Collector) RecordAction(action, status string, duration time.Duration) {
	if action == "" {
		action = "unknown"
	}
	c.actionsTotal.WithLabelValues(action, status).Inc()
	if duration > 0 {
		c.actionDuration.WithLabelValues(action).Observe(duration.Seconds())
	}
}

// =============================================================================
// 🎯 评估指标记录
// =============================================================================

// RecordPrediction 记录一次预测评分结果
func (c *Collector) RecordPrediction(outcome string) {
	c.predictions.WithLabelValues(outcome).Inc()
}
