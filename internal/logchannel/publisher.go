package logchannel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/churninator/churninator/internal/tlsutil"
)

// =============================================================================
// 📡 运行日志发布器
// =============================================================================

// ErrClosed is returned after Close.
var ErrClosed = errors.New("log channel publisher is closed")

// Publisher 将运行日志发布到 Redis 频道 <log_prefix>:<run_id>，
// 截图发布到 <frame_prefix>:<run_id>。
type Publisher struct {
	redis  *redis.Client
	config Config
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// Config 发布器配置
type Config struct {
	// Redis 地址
	Addr string `yaml:"addr" json:"addr"`

	// 密码
	Password string `yaml:"password" json:"password"`

	// 数据库编号
	DB int `yaml:"db" json:"db"`

	// 最大重试次数
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// 连接池大小
	PoolSize int `yaml:"pool_size" json:"pool_size"`

	// 最小空闲连接数
	MinIdleConns int `yaml:"min_idle_conns" json:"min_idle_conns"`

	// 是否启用 TLS
	TLSEnabled bool `yaml:"tls_enabled" json:"tls_enabled"`

	// 日志频道前缀
	LogPrefix string `yaml:"log_prefix" json:"log_prefix"`

	// 截图频道前缀
	FramePrefix string `yaml:"frame_prefix" json:"frame_prefix"`

	// 日志历史保留时长，0 表示不保留（仅发布）
	HistoryTTL time.Duration `yaml:"history_ttl" json:"history_ttl"`

	// 健康检查间隔
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"health_check_interval"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Addr:                "localhost:6379",
		MaxRetries:          3,
		PoolSize:            10,
		MinIdleConns:        2,
		LogPrefix:           "logs",
		FramePrefix:         "frames",
		HistoryTTL:          time.Hour,
		HealthCheckInterval: 30 * time.Second,
	}
}

// NewPublisher 创建发布器并检查连接
func NewPublisher(config Config, logger *zap.Logger) (*Publisher, error) {
	client := redis.NewClient(redisOptions(config))

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	p := NewPublisherFromClient(client, config, logger)

	// 启动健康检查
	if config.HealthCheckInterval > 0 {
		go p.healthCheckLoop()
	}

	p.logger.Info("log channel publisher initialized",
		zap.String("addr", config.Addr),
		zap.Int("pool_size", config.PoolSize),
		zap.Bool("tls", config.TLSEnabled),
	)

	return p, nil
}

func redisOptions(config Config) *redis.Options {
	opts := &redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		MaxRetries:   config.MaxRetries,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
	}
	if config.TLSEnabled {
		opts.TLSConfig = tlsutil.ClientConfig(config.Addr)
	}
	return opts
}

// NewPublisherFromClient wraps an existing client. Empty prefixes fall back
// to the defaults.
func NewPublisherFromClient(client *redis.Client, config Config, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if config.LogPrefix == "" {
		config.LogPrefix = defaults.LogPrefix
	}
	if config.FramePrefix == "" {
		config.FramePrefix = defaults.FramePrefix
	}
	return &Publisher{
		redis:  client,
		config: config,
		logger: logger.With(zap.String("component", "logchannel")),
	}
}

// =============================================================================
// 🎯 核心方法
// =============================================================================

// LogChannel 返回运行日志频道名
func (p *Publisher) LogChannel(runID string) string {
	return p.config.LogPrefix + ":" + runID
}

// FrameChannel 返回截图频道名
func (p *Publisher) FrameChannel(runID string) string {
	return p.config.FramePrefix + ":" + runID
}

func (p *Publisher) historyKey(runID string) string {
	return p.LogChannel(runID) + ":history"
}

// Publish 发布一行运行日志。配置了 HistoryTTL 时同时追加到历史列表。
func (p *Publisher) Publish(ctx context.Context, runID, message string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	channel := p.LogChannel(runID)
	if p.config.HistoryTTL <= 0 {
		if err := p.redis.Publish(ctx, channel, message).Err(); err != nil {
			p.logger.Error("publish failed", zap.String("channel", channel), zap.Error(err))
			return fmt.Errorf("publish run log: %w", err)
		}
		return nil
	}

	key := p.historyKey(runID)
	_, err := p.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, message)
		pipe.Expire(ctx, key, p.config.HistoryTTL)
		pipe.Publish(ctx, channel, message)
		return nil
	})
	if err != nil {
		p.logger.Error("publish failed", zap.String("channel", channel), zap.Error(err))
		return fmt.Errorf("publish run log: %w", err)
	}
	return nil
}

// PublishFrame 发布一帧 base64 截图
func (p *Publisher) PublishFrame(ctx context.Context, runID, frame string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	channel := p.FrameChannel(runID)
	if err := p.redis.Publish(ctx, channel, frame).Err(); err != nil {
		p.logger.Error("publish frame failed", zap.String("channel", channel), zap.Error(err))
		return fmt.Errorf("publish frame: %w", err)
	}
	return nil
}

// History 返回已保留的运行日志
func (p *Publisher) History(ctx context.Context, runID string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	lines, err := p.redis.LRange(ctx, p.historyKey(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read run log history: %w", err)
	}
	return lines, nil
}

// Subscribe 订阅一次运行的日志与截图频道。调用方负责关闭返回的 PubSub。
func (p *Publisher) Subscribe(ctx context.Context, runID string) (*redis.PubSub, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	sub := p.redis.Subscribe(ctx, p.LogChannel(runID), p.FrameChannel(runID))
	// 等待订阅确认，之后发布的消息不会丢失
	for i := 0; i < 2; i++ {
		if _, err := sub.Receive(ctx); err != nil {
			_ = sub.Close()
			return nil, fmt.Errorf("subscribe: %w", err)
		}
	}
	return sub, nil
}

// Ping 检查 Redis 连接
func (p *Publisher) Ping(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	return p.redis.Ping(ctx).Err()
}

// Close 关闭发布器
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	p.logger.Info("closing log channel publisher")

	return p.redis.Close()
}

// =============================================================================
// 🏥 健康检查
// =============================================================================

// healthCheckLoop 健康检查循环
func (p *Publisher) healthCheckLoop() {
	ticker := time.NewTicker(p.config.HealthCheckInterval)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.RLock()
		closed := p.closed
		p.mu.RUnlock()
		if closed {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.Ping(ctx); err != nil && !errors.Is(err, ErrClosed) {
			p.logger.Error("redis health check failed", zap.Error(err))
		} else {
			p.logger.Debug("redis health check passed")
		}
		cancel()
	}
}
