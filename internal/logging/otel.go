package logging

import (
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

// newCore builds the redacted stdout core, tees in the OTEL bridge when
// requested and a provider is available, and applies sampling to both.
func newCore(cfg *Config, out zapcore.WriteSyncer, otelProvider log.LoggerProvider) (zapcore.Core, error) {
	enc, err := newRedactor(newEncoder(cfg.Format), cfg)
	if err != nil {
		return nil, fmt.Errorf("redaction: %w", err)
	}
	core := zapcore.NewCore(enc, out, cfg.Level)

	if cfg.OTEL && otelProvider != nil {
		core = zapcore.NewTee(core, otelzap.NewCore(cfg.Service, otelzap.WithLoggerProvider(otelProvider)))
	}
	return sampleBelowWarn(core, cfg.Sampling), nil
}
