package logging

import (
	"go.uber.org/zap/zapcore"
)

// sampleBelowWarn throttles chatty levels. Warn and above always pass.
func sampleBelowWarn(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}
	loud := &levelSplit{Core: core, keep: func(l zapcore.Level) bool { return l >= zapcore.WarnLevel }}
	quiet := &levelSplit{Core: core, keep: func(l zapcore.Level) bool { return l < zapcore.WarnLevel }}
	return zapcore.NewTee(loud, zapcore.NewSamplerWithOptions(quiet, cfg.Tick, cfg.First, cfg.Thereafter))
}

// levelSplit hands the wrapped core only the levels keep accepts.
type levelSplit struct {
	zapcore.Core
	keep func(zapcore.Level) bool
}

func (c *levelSplit) Enabled(l zapcore.Level) bool {
	return c.keep(l) && c.Core.Enabled(l)
}

func (c *levelSplit) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.keep(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *levelSplit) With(fields []zapcore.Field) zapcore.Core {
	return &levelSplit{Core: c.Core.With(fields), keep: c.keep}
}
