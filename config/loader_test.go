// 配置加载器与校验测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churninator/churninator/types"
)

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	// 不指定配置文件，应该返回默认值
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 1920, cfg.Normalizer.Width)
	assert.Equal(t, 20, cfg.Agent.MaxActions)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "churninator.yaml")

	yamlContent := `
normalizer:
  width: 1280
  height: 720

executor:
  scroll_multiplier: 40
  type_delay: 10ms

agent:
  provider: "huggingface"
  max_actions: 50
  action_delay: 500ms
  retry_on_failure: false

preprocess:
  workers: 16
  stage_dir: "aguvis-stage2"

eval:
  stage: 2
  normalize: true

redis:
  enabled: true
  addr: "redis.example.com:6379"
  password: "secret"
  db: 1

log:
  level: "debug"
  format: "console"
  output_paths: ["stdout", "/tmp/churninator.log"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 1280, cfg.Normalizer.Width)
	assert.Equal(t, 720, cfg.Normalizer.Height)

	assert.Equal(t, 40, cfg.Executor.ScrollMultiplier)
	assert.Equal(t, 10*time.Millisecond, cfg.Executor.TypeDelay)
	// 未在 YAML 中出现的字段保留默认值
	assert.Equal(t, 1920, cfg.Executor.ViewportWidth)

	assert.Equal(t, "huggingface", cfg.Agent.Provider)
	assert.Equal(t, 50, cfg.Agent.MaxActions)
	assert.Equal(t, 500*time.Millisecond, cfg.Agent.ActionDelay)
	assert.False(t, cfg.Agent.RetryOnFailure)

	assert.Equal(t, 16, cfg.Preprocess.Workers)
	assert.Equal(t, "aguvis-stage2", cfg.Preprocess.StageDir)
	assert.True(t, cfg.Preprocess.SkipEmpty)

	assert.Equal(t, 2, cfg.Eval.Stage)
	assert.True(t, cfg.Eval.Normalize)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.example.com:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, []string{"stdout", "/tmp/churninator.log"}, cfg.Log.OutputPaths)

	require.NoError(t, cfg.Validate())
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("CHURNINATOR_NORMALIZER_WIDTH", "800")
	t.Setenv("CHURNINATOR_EXECUTOR_MAX_WAIT", "5s")
	t.Setenv("CHURNINATOR_AGENT_PROVIDER", "openai")
	t.Setenv("CHURNINATOR_AGENT_RETRY_ON_FAILURE", "false")
	t.Setenv("CHURNINATOR_PREPROCESS_WORKERS", "2")
	t.Setenv("CHURNINATOR_TELEMETRY_SAMPLE_RATE", "0.5")
	t.Setenv("CHURNINATOR_LOG_OUTPUT_PATHS", "stdout, stderr")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Normalizer.Width)
	assert.Equal(t, 5*time.Second, cfg.Executor.MaxWait)
	assert.Equal(t, "openai", cfg.Agent.Provider)
	assert.False(t, cfg.Agent.RetryOnFailure)
	assert.Equal(t, 2, cfg.Preprocess.Workers)
	assert.Equal(t, 0.5, cfg.Telemetry.SampleRate)
	assert.Equal(t, []string{"stdout", "stderr"}, cfg.Log.OutputPaths)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "churninator.yaml")

	yamlContent := `
eval:
  stage: 2
  concurrency: 3
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	// 环境变量应该覆盖 YAML
	t.Setenv("CHURNINATOR_EVAL_STAGE", "1")

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Eval.Stage)
	// YAML 值应该保留（没有被环境变量覆盖）
	assert.Equal(t, 3, cfg.Eval.Concurrency)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_AGENT_MAX_ACTIONS", "7")

	cfg, err := NewLoader().
		WithEnvPrefix("MYAPP").
		Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Agent.MaxActions)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("CHURNINATOR_PREPROCESS_WORKERS", "many")

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestLoader_WithValidator(t *testing.T) {
	t.Setenv("CHURNINATOR_PREPROCESS_WORKERS", "0")

	_, err := NewLoader().
		WithValidator(func(cfg *Config) error { return cfg.Validate() }).
		Load()
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidConfig, types.GetErrorCode(err))
}

func TestLoader_NonExistentFile(t *testing.T) {
	// 指定不存在的文件，应该使用默认值（不报错）
	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/churninator.yaml").
		Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
agent:
  max_actions: [invalid
  this is not valid yaml
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	_, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid default config", modify: func(c *Config) {}},
		{name: "unknown log level", modify: func(c *Config) { c.Log.Level = "trace" }, wantErr: "invalid log level"},
		{name: "unknown log format", modify: func(c *Config) { c.Log.Format = "xml" }, wantErr: "invalid log format"},
		{name: "zero resolution", modify: func(c *Config) { c.Normalizer.Width = 0 }, wantErr: "normalizer"},
		{name: "negative viewport", modify: func(c *Config) { c.Executor.ViewportHeight = -1 }, wantErr: "viewport"},
		{name: "zero scroll multiplier", modify: func(c *Config) { c.Executor.ScrollMultiplier = 0 }, wantErr: "scroll_multiplier"},
		{name: "zero max actions", modify: func(c *Config) { c.Agent.MaxActions = 0 }, wantErr: "max_actions"},
		{name: "negative action delay", modify: func(c *Config) { c.Agent.ActionDelay = -time.Second }, wantErr: "action_delay"},
		{name: "unknown provider", modify: func(c *Config) { c.Agent.Provider = "anthropic" }, wantErr: "provider"},
		{name: "zero workers", modify: func(c *Config) { c.Preprocess.Workers = 0 }, wantErr: "workers"},
		{name: "stage 3", modify: func(c *Config) { c.Eval.Stage = 3 }, wantErr: "stage"},
		{name: "zero eval concurrency", modify: func(c *Config) { c.Eval.Concurrency = 0 }, wantErr: "concurrency"},
		{name: "sample rate above one", modify: func(c *Config) { c.Telemetry.SampleRate = 1.5 }, wantErr: "sample_rate"},
		{name: "telemetry enabled without endpoint", modify: func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.OTLPEndpoint = "" }, wantErr: "otlp_endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, types.IsErrorCode(err, types.ErrInvalidConfig))
		})
	}
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Preprocess.Workers = 0
	cfg.Eval.Stage = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
	assert.Contains(t, err.Error(), "stage")
}

// --- MustLoad 测试 ---

func TestMustLoad_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "churninator.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("eval:\n  stage: 2\n"), 0644))

	assert.NotPanics(t, func() {
		cfg := MustLoad(configPath)
		assert.Equal(t, 2, cfg.Eval.Stage)
	})
}

func TestMustLoad_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("invalid: [yaml"), 0644))

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

func TestLoadFromEnv_Function(t *testing.T) {
	t.Setenv("CHURNINATOR_REDIS_ADDR", "env-redis:6379")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
}
