package logging

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const redacted = "[REDACTED]"

// redactor is an encoder that masks credentials before they are written.
// Per-entry fields go through EncodeEntry; fields bound with Logger.With
// reach the Add* overrides when the child core clones the encoder.
type redactor struct {
	zapcore.Encoder
	keys     map[string]bool
	patterns []*regexp.Regexp
}

func newRedactor(base zapcore.Encoder, cfg *Config) (*redactor, error) {
	patterns, err := compilePatterns(cfg.RedactPatterns)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(cfg.RedactKeys))
	for _, k := range cfg.RedactKeys {
		keys[strings.ToLower(k)] = true
	}
	return &redactor{Encoder: base, keys: keys, patterns: patterns}, nil
}

func (r *redactor) sensitive(key string) bool {
	return r.keys[strings.ToLower(key)]
}

func (r *redactor) scrub(s string) string {
	for _, re := range r.patterns {
		s = re.ReplaceAllString(s, redacted)
	}
	return s
}

func (r *redactor) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	ent.Message = r.scrub(ent.Message)
	clean := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		switch {
		case r.sensitive(f.Key):
			f = zap.String(f.Key, redacted)
		case f.Type == zapcore.StringType:
			f.String = r.scrub(f.String)
		case f.Type == zapcore.ErrorType:
			if err, ok := f.Interface.(error); ok {
				f = zap.String(f.Key, r.scrub(err.Error()))
			}
		}
		clean[i] = f
	}
	return r.Encoder.EncodeEntry(ent, clean)
}

func (r *redactor) AddString(key, val string) {
	if r.sensitive(key) {
		val = redacted
	}
	r.Encoder.AddString(key, r.scrub(val))
}

func (r *redactor) AddReflected(key string, val interface{}) error {
	if r.sensitive(key) {
		r.Encoder.AddString(key, redacted)
		return nil
	}
	return r.Encoder.AddReflected(key, val)
}

func (r *redactor) Clone() zapcore.Encoder {
	return &redactor{Encoder: r.Encoder.Clone(), keys: r.keys, patterns: r.patterns}
}
