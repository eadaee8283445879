package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/carconfig/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.TelemetryConfig{
		Enabled:           false,
		CollectorEndpoint: "otel:4317",
		SamplingRatio:     0.5,
		ServiceName:       "carconfig",
		MetricsEnabled:    true,
		MetricsInterval:   time.Second,
	}, "1.2.3")

	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, "otel:4317", cfg.CollectorEndpoint)
	assert.False(t, cfg.MetricsEnabled, "metrics follow the telemetry switch")
}

func TestSetup_Disabled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p, err := Setup(context.Background(), Config{Enabled: false}, zap.New(core))
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NotNil(t, p.Tracer("test"))
	assert.NotNil(t, p.Meter("test"))
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("Telemetry disabled, using no-op providers").Len())

	l := zap.NewNop()
	assert.Same(t, l, p.BridgeLogger(l, zapcore.InfoLevel))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core).With(zap.String("component", "test"))

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "kept", entry.Message)
		assert.Equal(t, "test", entry.ContextMap()["component"])
	}
}
