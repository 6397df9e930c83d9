// =============================================================================
// 📦 Churninator 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("churninator.yaml").
//	    WithEnvPrefix("CHURNINATOR").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/churninator/churninator/agent/actionspace"
	"github.com/churninator/churninator/agent/browser"
	"github.com/churninator/churninator/agent/evaluation"
	"github.com/churninator/churninator/internal/logchannel"
	"github.com/churninator/churninator/types"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 Churninator 的完整配置结构
type Config struct {
	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Normalizer 动作归一化配置
	Normalizer NormalizerConfig `yaml:"normalizer" env:"NORMALIZER"`

	// Executor 动作执行配置
	Executor ExecutorConfig `yaml:"executor" env:"EXECUTOR"`

	// Agent 智能体循环配置
	Agent AgentConfig `yaml:"agent" env:"AGENT"`

	// Preprocess 数据集预处理配置
	Preprocess PreprocessConfig `yaml:"preprocess" env:"PREPROCESS"`

	// Eval 评估配置
	Eval EvalConfig `yaml:"eval" env:"EVAL"`

	// Redis 运行日志通道配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// NormalizerConfig 动作归一化配置
type NormalizerConfig struct {
	// 目标分辨率宽度
	Width int `yaml:"width" env:"WIDTH"`
	// 目标分辨率高度
	Height int `yaml:"height" env:"HEIGHT"`
}

// Resolution 返回归一化使用的分辨率
func (c NormalizerConfig) Resolution() actionspace.Resolution {
	return actionspace.Resolution{Width: c.Width, Height: c.Height}
}

// ExecutorConfig 动作执行配置
type ExecutorConfig struct {
	// 默认视口宽度（驱动未报告视口时使用）
	ViewportWidth int `yaml:"viewport_width" env:"VIEWPORT_WIDTH"`
	// 默认视口高度
	ViewportHeight int `yaml:"viewport_height" env:"VIEWPORT_HEIGHT"`
	// 滚动倍数：每单位 amount 对应的像素
	ScrollMultiplier int `yaml:"scroll_multiplier" env:"SCROLL_MULTIPLIER"`
	// 输入字符间隔
	TypeDelay time.Duration `yaml:"type_delay" env:"TYPE_DELAY"`
	// wait 动作的最长等待
	MaxWait time.Duration `yaml:"max_wait" env:"MAX_WAIT"`
	// 单个动作超时
	ActionTimeout time.Duration `yaml:"action_timeout" env:"ACTION_TIMEOUT"`
}

// BrowserConfig 转换为执行器配置
func (c ExecutorConfig) BrowserConfig() browser.BrowserConfig {
	return browser.BrowserConfig{
		ViewportWidth:    c.ViewportWidth,
		ViewportHeight:   c.ViewportHeight,
		ScrollMultiplier: c.ScrollMultiplier,
		TypeDelay:        c.TypeDelay,
		MaxWait:          c.MaxWait,
		ActionTimeout:    c.ActionTimeout,
	}
}

// AgentConfig 智能体循环配置
type AgentConfig struct {
	// 模型输出格式提供方: local, openai, huggingface
	Provider string `yaml:"provider" env:"PROVIDER"`
	// 最大动作数
	MaxActions int `yaml:"max_actions" env:"MAX_ACTIONS"`
	// 动作间隔
	ActionDelay time.Duration `yaml:"action_delay" env:"ACTION_DELAY"`
	// 任务超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 执行失败后是否继续
	RetryOnFailure bool `yaml:"retry_on_failure" env:"RETRY_ON_FAILURE"`
	// 截图/提议连续失败上限
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
}

// LoopConfig 转换为智能体循环配置
func (c AgentConfig) LoopConfig() browser.AgenticBrowserConfig {
	return browser.AgenticBrowserConfig{
		MaxActions:     c.MaxActions,
		ActionDelay:    c.ActionDelay,
		Timeout:        c.Timeout,
		RetryOnFailure: c.RetryOnFailure,
		MaxRetries:     c.MaxRetries,
	}
}

// PreprocessConfig 数据集预处理配置
type PreprocessConfig struct {
	// 并发 worker 数
	Workers int `yaml:"workers" env:"WORKERS"`
	// 图片路径前缀，例如 aguvis-stage1
	StageDir string `yaml:"stage_dir" env:"STAGE_DIR"`
	// 是否跳过没有动作的记录
	SkipEmpty bool `yaml:"skip_empty" env:"SKIP_EMPTY"`
}

// EvalConfig 评估配置
type EvalConfig struct {
	// 输出格式阶段: 1 自由文本, 2 <code> 块
	Stage int `yaml:"stage" env:"STAGE"`
	// 并发数
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
	// 评分前是否归一化预测动作
	Normalize bool `yaml:"normalize" env:"NORMALIZE"`
}

// BenchmarkConfig 转换为评估配置
func (c EvalConfig) BenchmarkConfig() evaluation.BenchmarkConfig {
	return evaluation.BenchmarkConfig{
		Stage:       c.Stage,
		Concurrency: c.Concurrency,
		Normalize:   c.Normalize,
	}
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 是否启用运行日志通道
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	// 是否启用 TLS
	TLSEnabled bool `yaml:"tls_enabled" env:"TLS_ENABLED"`
	// 日志频道前缀，频道名为 <prefix>:<run_id>
	LogChannelPrefix string `yaml:"log_channel_prefix" env:"LOG_CHANNEL_PREFIX"`
	// 截图频道前缀
	FrameChannelPrefix string `yaml:"frame_channel_prefix" env:"FRAME_CHANNEL_PREFIX"`
	// 日志历史保留时长，0 表示不保留
	HistoryTTL time.Duration `yaml:"history_ttl" env:"HISTORY_TTL"`
}

// PublisherConfig 转换为运行日志发布器配置
func (c RedisConfig) PublisherConfig() logchannel.Config {
	cfg := logchannel.DefaultConfig()
	cfg.Addr = c.Addr
	cfg.Password = c.Password
	cfg.DB = c.DB
	cfg.PoolSize = c.PoolSize
	cfg.MinIdleConns = c.MinIdleConns
	cfg.TLSEnabled = c.TLSEnabled
	cfg.LogPrefix = c.LogChannelPrefix
	cfg.FramePrefix = c.FrameChannelPrefix
	cfg.HistoryTTL = c.HistoryTTL
	return cfg
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig OpenTelemetry 配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
	// 部署环境，写入 deployment.environment 资源属性
	Environment string `yaml:"environment" env:"ENVIRONMENT"`
	// 是否以明文 gRPC 连接 collector
	Insecure bool `yaml:"insecure" env:"INSECURE"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
	// 运行结束时写入的 textfile collector 文件路径（为空则不写）
	TextfilePath string `yaml:"textfile_path" env:"TEXTFILE_PATH"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "CHURNINATOR",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		// 获取环境变量值
		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		// 设置字段值
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 验证配置，收集所有错误后一次返回
func (c *Config) Validate() error {
	var errs []string

	// 验证日志配置
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level %q", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Sprintf("invalid log format %q", c.Log.Format))
	}

	// 验证归一化配置
	if err := c.Normalizer.Resolution().Validate(); err != nil {
		errs = append(errs, "normalizer: "+err.Error())
	}

	// 验证执行配置
	if c.Executor.ViewportWidth <= 0 || c.Executor.ViewportHeight <= 0 {
		errs = append(errs, "executor viewport must be positive")
	}
	if c.Executor.ScrollMultiplier <= 0 {
		errs = append(errs, "executor scroll_multiplier must be positive")
	}

	// 验证 Agent 配置
	if c.Agent.MaxActions <= 0 {
		errs = append(errs, "agent max_actions must be positive")
	}
	if c.Agent.ActionDelay < 0 {
		errs = append(errs, "agent action_delay must not be negative")
	}
	if _, err := browser.ParserForProvider(c.Agent.Provider); err != nil {
		errs = append(errs, fmt.Sprintf("agent provider %q is not supported", c.Agent.Provider))
	}

	// 验证预处理配置
	if c.Preprocess.Workers <= 0 {
		errs = append(errs, "preprocess workers must be positive")
	}

	// 验证评估配置
	if c.Eval.Stage != 1 && c.Eval.Stage != 2 {
		errs = append(errs, "eval stage must be 1 or 2")
	}
	if c.Eval.Concurrency <= 0 {
		errs = append(errs, "eval concurrency must be positive")
	}

	// 验证遥测配置
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry sample_rate must be between 0 and 1")
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, "telemetry otlp_endpoint is required when enabled")
	}

	if len(errs) > 0 {
		return types.Errorf(types.ErrInvalidConfig, "config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
