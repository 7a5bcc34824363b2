package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/wizz/internal/config"
)

func newBufferLogger(t *testing.T, mutate func(*Config)) (*Logger, *bytes.Buffer) {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false
	cfg.Level = TraceLevel
	if mutate != nil {
		mutate(cfg)
	}
	var buf bytes.Buffer
	logger, err := NewLoggerTo(&buf, cfg, nil)
	require.NoError(t, err)
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestLogger_ContextAwareMethods(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithRunID(context.Background(), "run-1")

	tests := []struct {
		name    string
		logFunc func()
		level   zapcore.Level
	}{
		{"trace", func() { tl.Trace(ctx, "msg") }, TraceLevel},
		{"debug", func() { tl.Debug(ctx, "msg") }, zapcore.DebugLevel},
		{"info", func() { tl.Info(ctx, "msg") }, zapcore.InfoLevel},
		{"warn", func() { tl.Warn(ctx, "msg") }, zapcore.WarnLevel},
		{"error", func() { tl.Error(ctx, "msg") }, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl.Reset()
			tt.logFunc()
			logs := tl.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
			assert.Equal(t, "run-1", logs[0].ContextMap()["run.id"])
		})
	}
}

func TestLogger_JSONOutputIncludesServiceAndTraceLevelName(t *testing.T) {
	logger, buf := newBufferLogger(t, nil)
	logger.Trace(context.Background(), "raw response", zap.Int("bytes", 12))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "trace", lines[0]["level"])
	assert.Equal(t, "wizz", lines[0]["service"])
	assert.EqualValues(t, 12, lines[0]["bytes"])
}

func TestLogger_RedactsPerEntryFields(t *testing.T) {
	logger, buf := newBufferLogger(t, nil)

	logger.Info(context.Background(), "calling upstream",
		zap.String("authorization", "Bearer abc.def"),
		zap.String("note", "key is sk-or-v1-abcdefghijklmnopqrstuvwxyz0123 ok"),
		zap.Error(errors.New("upstream said api_key=hunter2")),
		zap.String("api_key", "sk-123"),
	)

	out := buf.String()
	assert.NotContains(t, out, "abc.def")
	assert.NotContains(t, out, "abcdefghijklmnopqrstuvwxyz0123")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "sk-123")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "[REDACTED]", lines[0]["authorization"])
	assert.Equal(t, "key is [REDACTED] ok", lines[0]["note"])
}

func TestLogger_RedactsWithFields(t *testing.T) {
	logger, buf := newBufferLogger(t, nil)
	logger.With(zap.String("token", "ghp_secret"), zap.String("target", "Bearer xyz")).
		Named("publish").
		Info(context.Background(), "publishing")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "[REDACTED]", lines[0]["token"])
	assert.Equal(t, "[REDACTED]", lines[0]["target"])
	assert.Equal(t, "publish", lines[0]["logger"])
}

func TestLogger_RedactsMessage(t *testing.T) {
	logger, buf := newBufferLogger(t, nil)
	logger.Warn(context.Background(), "retrying with api_key=hunter2")
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestLogger_ContextFieldsFromSpan(t *testing.T) {
	tl := NewTestLogger()
	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	tl.Info(WithRequestID(ctx, "req-9"), "handled")

	fields := tl.All()[0].ContextMap()
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, "req-9", fields["request.id"])
}

func TestWithRequestID_DropsInvalid(t *testing.T) {
	ctx := WithRequestID(context.Background(), "bad id with spaces")
	assert.Empty(t, ContextFields(ctx))
}

func TestWithRunID_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { WithRunID(context.Background(), "") })
}

func TestSampling_ErrorsNeverSampled(t *testing.T) {
	logger, buf := newBufferLogger(t, func(c *Config) {
		c.Sampling = SamplingConfig{Enabled: true, Tick: time.Minute, First: 2}
	})

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		logger.Info(ctx, "repeated info")
		logger.Warn(ctx, "repeated warn")
		logger.Error(ctx, "repeated error")
	}
	logger.Debug(ctx, "single debug")

	var info, warns, errs, debug int
	for _, line := range decodeLines(t, buf) {
		switch line["level"] {
		case "info":
			info++
		case "warn":
			warns++
		case "error":
			errs++
		case "debug":
			debug++
		}
	}
	assert.Equal(t, 2, info)
	assert.Equal(t, 10, warns)
	assert.Equal(t, 10, errs)
	assert.Equal(t, 1, debug)
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(config.LogConfig{Level: "debug", Format: "console"}, "wizzd", false)
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "wizzd", cfg.Service)
	assert.False(t, cfg.OTEL)

	_, err = FromAppConfig(config.LogConfig{Level: "loud"}, "", false)
	assert.Error(t, err)

	_, err = FromAppConfig(config.LogConfig{Format: "xml"}, "", false)
	assert.Error(t, err)
}

func TestConfig_ValidateRejectsBadPatterns(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.RedactPatterns = []string{"("}
	assert.ErrorContains(t, cfg.Validate(), "invalid redaction pattern")

	cfg.RedactPatterns = []string{strings.Repeat("a", maxPatternLen+1)}
	assert.ErrorContains(t, cfg.Validate(), "too long")

	cfg = NewDefaultConfig()
	cfg.Sampling.Tick = 0
	assert.Error(t, cfg.Validate())
}

func TestLevelFromString(t *testing.T) {
	l, err := LevelFromString("TRACE")
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, l)

	for _, name := range []string{"warn", "Warning", " warn "} {
		l, err = LevelFromString(name)
		require.NoError(t, err, name)
		assert.Equal(t, zapcore.WarnLevel, l, name)
	}

	_, err = LevelFromString("loud")
	assert.EqualError(t, err, `unknown log level "loud"`)
}
