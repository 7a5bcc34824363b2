package logging

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/wizz/internal/config"
)

// Config holds logging configuration. Entries always go to the stdout sink;
// OTEL adds the OpenTelemetry bridge next to it.
type Config struct {
	Level   zapcore.Level
	Format  string
	Service string
	OTEL    bool

	Sampling SamplingConfig

	// Caller adds file:line of the Logger method's caller.
	Caller          bool
	StacktraceLevel zapcore.Level

	// RedactKeys lose their whole value. RedactPatterns are replaced inside
	// every string value and message.
	RedactKeys     []string
	RedactPatterns []string
}

// SamplingConfig throttles repeated entries below Warn. Within each tick the
// first First entries with the same message pass, then every Thereafter-th.
type SamplingConfig struct {
	Enabled    bool
	Tick       time.Duration
	First      int
	Thereafter int
}

const maxPatternLen = 200

var defaultRedactKeys = []string{
	"password", "secret", "token", "api_key", "apikey",
	"authorization", "bearer", "credential", "private_key",
}

var defaultRedactPatterns = []string{
	`(?i)bearer\s+\S+`,
	`(?i)api[_-]?key[=:]\s*\S+`,
	`sk-(or-v1-)?[A-Za-z0-9_-]{20,}`,
	`gh[pousr]_[A-Za-z0-9]{36,}`,
}

// NewDefaultConfig returns JSON output at info with redaction on.
func NewDefaultConfig() *Config {
	return &Config{
		Level:   zapcore.InfoLevel,
		Format:  "json",
		Service: "wizz",
		Sampling: SamplingConfig{
			Enabled:    true,
			Tick:       time.Second,
			First:      100,
			Thereafter: 10,
		},
		Caller:          true,
		StacktraceLevel: zapcore.ErrorLevel,
		RedactKeys:      append([]string(nil), defaultRedactKeys...),
		RedactPatterns:  append([]string(nil), defaultRedactPatterns...),
	}
}

// FromAppConfig derives the logging config from the operator-facing settings.
// otel enables the OpenTelemetry output alongside stdout.
func FromAppConfig(lc config.LogConfig, serviceName string, otel bool) (*Config, error) {
	cfg := NewDefaultConfig()
	if lc.Level != "" {
		level, err := LevelFromString(lc.Level)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		cfg.Level = level
	}
	if lc.Format != "" {
		cfg.Format = lc.Format
	}
	if serviceName != "" {
		cfg.Service = serviceName
	}
	cfg.OTEL = otel
	return cfg, cfg.Validate()
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if c.Service == "" {
		return errors.New("service name cannot be empty")
	}
	if c.Sampling.Enabled && (c.Sampling.Tick <= 0 || c.Sampling.First < 1) {
		return errors.New("sampling needs tick > 0 and first >= 1")
	}
	_, err := compilePatterns(c.RedactPatterns)
	return err
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if len(p) > maxPatternLen {
			return nil, fmt.Errorf("redaction pattern too long (max %d chars): %q", maxPatternLen, p)
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
