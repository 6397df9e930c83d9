package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/churninator/churninator/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap/zaptest"
)

// saveAndRestoreGlobalProviders 保存全局 provider，测试结束后还原
func saveAndRestoreGlobalProviders(t *testing.T) {
	t.Helper()
	origTP := otel.GetTracerProvider()
	origMP := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(origTP)
		otel.SetMeterProvider(origMP)
	})
}

// enabledConfig 指向本地 collector；测试中没有 collector 在运行，
// gRPC 连接是惰性的，Init 本身不会失败。
func enabledConfig() config.TelemetryConfig {
	cfg := config.DefaultTelemetryConfig()
	cfg.Enabled = true
	cfg.SampleRate = 1
	return cfg
}

func shutdownOnCleanup(t *testing.T, p *Providers) {
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	})
}

func TestInit_Disabled(t *testing.T) {
	saveAndRestoreGlobalProviders(t)
	before := otel.GetTracerProvider()

	p, err := Init(config.DefaultTelemetryConfig(), "v1.0.0", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Nil(t, p.tp)
	assert.Nil(t, p.mp)
	assert.Equal(t, before, otel.GetTracerProvider(), "disabled telemetry leaves globals alone")
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_Enabled(t *testing.T) {
	saveAndRestoreGlobalProviders(t)

	p, err := Init(enabledConfig(), "v1.2.3", zaptest.NewLogger(t))
	require.NoError(t, err)
	shutdownOnCleanup(t, p)

	require.NotNil(t, p.tp)
	require.NotNil(t, p.mp)
	_, tpIsSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	_, mpIsSDK := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, tpIsSDK)
	assert.True(t, mpIsSDK)
}

func TestInit_Secure(t *testing.T) {
	saveAndRestoreGlobalProviders(t)

	cfg := enabledConfig()
	cfg.Insecure = false
	p, err := Init(cfg, "", nil)
	require.NoError(t, err)
	shutdownOnCleanup(t, p)
	assert.NotNil(t, p.tp)
}

func TestProviders_Shutdown_Nil(t *testing.T) {
	var p *Providers
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestProviders_Shutdown_Real(t *testing.T) {
	saveAndRestoreGlobalProviders(t)

	p, err := Init(enabledConfig(), "v1.2.3", zaptest.NewLogger(t))
	require.NoError(t, err)

	// 没有 collector 时导出可能报连接错误，只要求按时返回且不 panic
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NotPanics(t, func() { _ = p.Shutdown(ctx) })
}

func TestNewResource(t *testing.T) {
	cfg := config.DefaultTelemetryConfig()
	cfg.ServiceName = "churninator-worker"
	cfg.Environment = "staging"

	res, err := newResource(context.Background(), cfg, "v0.4.0")
	require.NoError(t, err)

	set := res.Set()
	name, _ := set.Value(semconv.ServiceNameKey)
	namespace, _ := set.Value(semconv.ServiceNamespaceKey)
	version, _ := set.Value(semconv.ServiceVersionKey)
	env, _ := set.Value(semconv.DeploymentEnvironmentKey)
	assert.Equal(t, "churninator-worker", name.AsString())
	assert.Equal(t, ServiceNamespace, namespace.AsString())
	assert.Equal(t, "v0.4.0", version.AsString())
	assert.Equal(t, "staging", env.AsString())
}

func TestNewResource_Defaults(t *testing.T) {
	res, err := newResource(context.Background(), config.TelemetryConfig{}, "dev")
	require.NoError(t, err)

	set := res.Set()
	name, _ := set.Value(semconv.ServiceNameKey)
	assert.Equal(t, ServiceNamespace, name.AsString())
	assert.False(t, set.HasValue(semconv.DeploymentEnvironmentKey), "no environment configured")
}

func TestResolveVersion(t *testing.T) {
	assert.Equal(t, "v2.0.0", resolveVersion("v2.0.0"))
	// dev 与空值回退到 build info，结果取决于构建方式，只要求非空
	assert.NotEmpty(t, resolveVersion("dev"))
	assert.NotEmpty(t, resolveVersion(""))
}

func TestTracer_RecordsWithSDKProvider(t *testing.T) {
	saveAndRestoreGlobalProviders(t)

	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	_, span := Tracer().Start(context.Background(), "dataset.preprocess")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "dataset.preprocess", spans[0].Name())
	assert.Equal(t, InstrumentationName, spans[0].InstrumentationScope().Name)
}
