package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/wizz/internal/config"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"disabled skips validation", func(c *Config) { c.Endpoint = "" }, false},
		{"enabled local insecure", func(c *Config) { c.Enabled = true }, false},
		{"enabled ipv6 loopback", func(c *Config) { c.Enabled = true; c.Endpoint = "[::1]:4317" }, false},
		{"remote insecure rejected", func(c *Config) { c.Enabled = true; c.Endpoint = "otel.example.com:4317" }, true},
		{"remote tls allowed", func(c *Config) {
			c.Enabled = true
			c.Endpoint = "https://otel.example.com"
			c.Protocol = "http/protobuf"
			c.Insecure = false
		}, false},
		{"unknown protocol", func(c *Config) { c.Enabled = true; c.Protocol = "thrift" }, true},
		{"bad sampling rate", func(c *Config) { c.Enabled = true; c.SampleRate = 1.5 }, true},
		{"missing service name", func(c *Config) { c.Enabled = true; c.ServiceName = "" }, true},
		{"metrics off", func(c *Config) { c.Enabled = true; c.MetricsInterval = 0 }, false},
		{"zero shutdown timeout", func(c *Config) { c.Enabled = true; c.ShutdownTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.ObservabilityConfig{
		EnableTelemetry: true,
		ServiceName:     "wizz-staging",
		Endpoint:        "127.0.0.1:4318",
		Protocol:        "http/protobuf",
		Insecure:        true,
	}, "1.2.3")

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "wizz-staging", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, "http/protobuf", cfg.Protocol)
	assert.NoError(t, cfg.Validate())

	want := NewDefaultConfig()
	want.Insecure = false
	assert.Equal(t, want, FromAppConfig(config.ObservabilityConfig{}, ""))
}

func TestIsLoopback(t *testing.T) {
	for endpoint, want := range map[string]bool{
		"localhost:4317":        true,
		"http://127.0.0.1:4318": true,
		"[::1]:4317":            true,
		"https://otel.example":  false,
		"10.0.0.5:4317":         false,
	} {
		assert.Equal(t, want, isLoopback(endpoint), endpoint)
	}
}

func TestNewMeterProvider_OffWithoutInterval(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MetricsInterval = 0
	mp, err := newMeterProvider(context.Background(), cfg, newResource(cfg))
	require.NoError(t, err)
	assert.Nil(t, mp)
}

func TestNew_DisabledIsNoop(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	assert.False(t, tel.IsEnabled())
	assert.True(t, tel.Health().Healthy)

	_, span := tel.Tracer("test").Start(context.Background(), "noop")
	span.End()
	assert.NotNil(t, tel.Meter("test"))
	assert.Nil(t, tel.LoggerProvider())
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.False(t, tel.Health().Healthy)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.ServiceVersion = ""
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNilTelemetry(t *testing.T) {
	var tel *Telemetry
	assert.NotNil(t, tel.Tracer("x"))
	assert.NotNil(t, tel.Meter("x"))
	assert.Nil(t, tel.LoggerProvider())
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.True(t, tel.Health().Degraded)
}

func TestTestTelemetry_RecordsSpansAndCounters(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	_, span := tt.Tracer("wizz.test").Start(ctx, "orchestrator.plan")
	span.SetAttributes(attribute.Int("tasks", 2))
	span.End()

	counter, err := tt.Meter("wizz.test").Int64Counter("wizz.runs_total")
	require.NoError(t, err)
	counter.Add(ctx, 1, metricAttrs("build"))
	counter.Add(ctx, 2, metricAttrs("default"))

	tt.AssertSpanExists(t, "orchestrator.plan")
	tt.AssertSpanAttribute(t, "orchestrator.plan", "tasks", int64(2))
	assert.Equal(t, int64(3), tt.CounterValue(t, "wizz.runs_total"))
	assert.Equal(t, int64(2), tt.CounterValue(t, "wizz.runs_total", attribute.String("mode", "default")))
}

func metricAttrs(mode string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("mode", mode))
}
