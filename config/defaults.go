// =============================================================================
// 📦 Churninator 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Log:        DefaultLogConfig(),
		Normalizer: DefaultNormalizerConfig(),
		Executor:   DefaultExecutorConfig(),
		Agent:      DefaultAgentConfig(),
		Preprocess: DefaultPreprocessConfig(),
		Eval:       DefaultEvalConfig(),
		Redis:      DefaultRedisConfig(),
		Telemetry:  DefaultTelemetryConfig(),
		Metrics:    DefaultMetricsConfig(),
	}
}

// DefaultNormalizerConfig 返回默认归一化配置
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		Width:  1920,
		Height: 1080,
	}
}

// DefaultExecutorConfig 返回默认执行配置
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		ViewportWidth:    1920,
		ViewportHeight:   1080,
		ScrollMultiplier: 100,
		TypeDelay:        50 * time.Millisecond,
		MaxWait:          time.Minute,
		ActionTimeout:    30 * time.Second,
	}
}

// DefaultAgentConfig 返回默认 Agent 配置
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Provider:       "local",
		MaxActions:     20,
		ActionDelay:    2 * time.Second,
		Timeout:        10 * time.Minute,
		RetryOnFailure: true,
		MaxRetries:     3,
	}
}

// DefaultPreprocessConfig 返回默认预处理配置
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{
		Workers:   4,
		StageDir:  "aguvis-stage1",
		SkipEmpty: true,
	}
}

// DefaultEvalConfig 返回默认评估配置
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		Stage:       1,
		Concurrency: 5,
		Normalize:   false,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:            false,
		Addr:               "localhost:6379",
		Password:           "",
		DB:                 0,
		PoolSize:           10,
		MinIdleConns:       2,
		LogChannelPrefix:   "logs",
		FrameChannelPrefix: "frames",
		HistoryTTL:         time.Hour,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "churninator",
		SampleRate:   0.1,
		Environment:  "development",
		Insecure:     true,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "churninator",
	}
}
