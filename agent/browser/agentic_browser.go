package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/churninator/churninator/types"
)

// ActionProposer 根据截图与任务给出下一步动作（通常由视觉语言模型实现）
type ActionProposer interface {
	ProposeAction(ctx context.Context, task BrowserTask, screenshot *Screenshot, history []string) (*VLMResponse, error)
}

// AgenticBrowserConfig 代理浏览器配置
type AgenticBrowserConfig struct {
	MaxActions     int           `json:"max_actions" yaml:"max_actions" env:"MAX_ACTIONS"`
	ActionDelay    time.Duration `json:"action_delay" yaml:"action_delay" env:"ACTION_DELAY"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout" env:"TIMEOUT"`
	RetryOnFailure bool          `json:"retry_on_failure" yaml:"retry_on_failure" env:"RETRY_ON_FAILURE"`
	// MaxRetries bounds consecutive screenshot or proposer failures.
	MaxRetries int `json:"max_retries" yaml:"max_retries" env:"MAX_RETRIES"`
}

// DefaultAgenticBrowserConfig 返回默认配置
func DefaultAgenticBrowserConfig() AgenticBrowserConfig {
	return AgenticBrowserConfig{
		MaxActions:     20,
		ActionDelay:    2 * time.Second,
		Timeout:        10 * time.Minute,
		RetryOnFailure: true,
		MaxRetries:     3,
	}
}

// BrowserTask 浏览器自动化任务
type BrowserTask struct {
	ID       string         `json:"id"`
	Goal     string         `json:"goal"`
	StartURL string         `json:"start_url,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ActionRecord 已执行动作的记录
type ActionRecord struct {
	Step      int       `json:"step"`
	Thought   string    `json:"thought,omitempty"`
	Action    string    `json:"action"`
	Canonical string    `json:"canonical,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskResult 浏览器任务结果
type TaskResult struct {
	TaskID    string         `json:"task_id"`
	Success   bool           `json:"success"`
	Actions   []ActionRecord `json:"actions"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  time.Duration  `json:"duration"`
	Error     string         `json:"error,omitempty"`
}

// AgenticBrowser runs the screenshot -> propose -> execute loop.
type AgenticBrowser struct {
	driver   BrowserDriver
	proposer ActionProposer
	executor *Executor
	sink     LogSink
	config   AgenticBrowserConfig
	history  []ActionRecord
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewAgenticBrowser 创建代理浏览器。sink 为 nil 时丢弃运行日志。
func NewAgenticBrowser(driver BrowserDriver, proposer ActionProposer, executor *Executor, sink LogSink, config AgenticBrowserConfig, logger *zap.Logger) *AgenticBrowser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = NopSink{}
	}
	if config.MaxActions <= 0 {
		config.MaxActions = DefaultAgenticBrowserConfig().MaxActions
	}
	return &AgenticBrowser{
		driver:   driver,
		proposer: proposer,
		executor: executor,
		sink:     sink,
		config:   config,
		history:  make([]ActionRecord, 0),
		logger:   logger.With(zap.String("component", "agentic_browser")),
	}
}

// ExecuteTask 使用 Vision-Action Loop 执行任务
func (b *AgenticBrowser) ExecuteTask(ctx context.Context, task BrowserTask) (*TaskResult, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	ctx = types.WithRunID(ctx, task.ID)
	if b.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.Timeout)
		defer cancel()
	}

	result := &TaskResult{
		TaskID:    task.ID,
		StartTime: time.Now(),
		Actions:   make([]ActionRecord, 0),
	}
	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
	}()

	b.logger.Info("starting browser task", zap.String("task_id", task.ID), zap.String("goal", task.Goal))

	if fs, ok := b.sink.(FrameSink); ok {
		defer func() {
			// 使用独立 context，超时后订阅方仍能收到结束标记
			if err := fs.PublishFrame(context.WithoutCancel(ctx), task.ID, EndOfFrames); err != nil {
				b.logger.Warn("publish end frame failed", zap.Error(err))
			}
		}()
	}

	if task.StartURL != "" {
		if err := b.driver.Navigate(ctx, task.StartURL); err != nil {
			result.Error = err.Error()
			return result, err
		}
		b.publish(ctx, task.ID, "Navigated to "+task.StartURL)
	}

	// ActionDelay 为零时不限速
	limit := rate.Inf
	if b.config.ActionDelay > 0 {
		limit = rate.Every(b.config.ActionDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	var history []string
	failures := 0
	for step := 1; step <= b.config.MaxActions; step++ {
		if err := limiter.Wait(ctx); err != nil {
			result.Error = "timeout"
			return result, ctx.Err()
		}
		b.publish(ctx, task.ID, fmt.Sprintf("--- Step %d ---", step))

		screenshot, err := b.driver.Screenshot(ctx)
		if err != nil {
			b.logger.Error("screenshot failed", zap.Error(err))
			if failures++; failures > b.config.MaxRetries {
				result.Error = err.Error()
				return result, err
			}
			continue
		}
		if fs, ok := b.sink.(FrameSink); ok {
			if err := fs.PublishFrame(ctx, task.ID, ScreenshotToBase64(screenshot)); err != nil {
				b.logger.Warn("publish frame failed", zap.Error(err))
			}
		}

		resp, err := b.proposer.ProposeAction(ctx, task, screenshot, history)
		if err != nil {
			b.logger.Error("action proposal failed", zap.Error(err))
			if failures++; failures > b.config.MaxRetries {
				result.Error = err.Error()
				return result, err
			}
			continue
		}
		failures = 0
		b.publish(ctx, task.ID, "Thought: "+resp.Thought)

		record := ActionRecord{
			Step:      step,
			Thought:   resp.Thought,
			Action:    resp.Action,
			Timestamp: time.Now(),
		}
		outcome, execErr := b.executor.Execute(ctx, task.ID, resp.Action)
		if outcome != nil && outcome.Call != nil {
			record.Canonical = outcome.Call.String()
		}
		record.Success = execErr == nil
		if execErr != nil {
			record.Error = execErr.Error()
		}
		result.Actions = append(result.Actions, record)
		history = append(history, resp.Action)

		b.mu.Lock()
		b.history = append(b.history, record)
		b.mu.Unlock()

		if outcome != nil && outcome.Done {
			b.publish(ctx, task.ID, "Mission terminated by agent.")
			result.Success = true
			break
		}
		if execErr != nil && !b.config.RetryOnFailure {
			result.Error = execErr.Error()
			break
		}
		if ctx.Err() != nil {
			result.Error = "timeout"
			return result, ctx.Err()
		}
	}

	if summary, err := json.Marshal(map[string]any{"status": "Completed", "log": history}); err == nil {
		b.publish(ctx, task.ID, string(summary))
	}

	b.logger.Info("browser task completed",
		zap.String("task_id", task.ID),
		zap.Bool("success", result.Success),
		zap.Int("actions", len(result.Actions)),
	)

	return result, nil
}

// GetHistory 返回动作历史
func (b *AgenticBrowser) GetHistory() []ActionRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ActionRecord{}, b.history...)
}

func (b *AgenticBrowser) publish(ctx context.Context, runID, msg string) {
	if err := b.sink.Publish(ctx, runID, msg); err != nil {
		b.logger.Warn("publish run log failed", zap.String("run_id", runID), zap.Error(err))
	}
}
