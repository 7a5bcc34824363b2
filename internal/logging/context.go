package logging

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type (
	requestIDKey struct{}
	runIDKey     struct{}
)

const maxIDLen = 128

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateID reports whether id is usable as a request or run ID.
func ValidateID(id, name string) error {
	switch {
	case id == "":
		return fmt.Errorf("%s cannot be empty", name)
	case !utf8.ValidString(id):
		return fmt.Errorf("%s contains invalid UTF-8", name)
	case len(id) > maxIDLen:
		return fmt.Errorf("%s exceeds max length %d", name, maxIDLen)
	case !idPattern.MatchString(id):
		return fmt.Errorf("%s contains invalid characters (must be alphanumeric, hyphen, underscore)", name)
	}
	return nil
}

// WithRequestID tags ctx with a client-supplied request ID. Invalid IDs are
// dropped.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ValidateID(requestID, "request id") != nil {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// WithRunID tags ctx with an orchestrator run ID. Run IDs are minted
// in-process, so an invalid one panics.
func WithRunID(ctx context.Context, runID string) context.Context {
	if err := ValidateID(runID, "run id"); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, runIDKey{}, runID)
}

// ContextFields returns the correlation fields carried by ctx: the active
// span and any request or run ID.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		fields = append(fields, zap.String("request.id", id))
	}
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		fields = append(fields, zap.String("run.id", id))
	}
	return fields
}
