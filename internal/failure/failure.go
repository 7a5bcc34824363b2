// Package failure defines the error taxonomy shared by every wizz component.
//
// Each error carries a Kind that decides how the caller reacts (HTTP status,
// retry-or-not, log level) plus an optional diagnostic payload: the unparsed
// model text or the failed upstream response body.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// KindValidation is bad caller input, rejected before any upstream call.
	KindValidation Kind = "validation"
	// KindConfig is a missing or malformed setting.
	KindConfig Kind = "config"
	// KindUpstream is a network failure or non-2xx status from an upstream service.
	KindUpstream Kind = "upstream"
	// KindTimeout is an upstream call cancelled by its per-call deadline.
	KindTimeout Kind = "upstream_timeout"
	// KindContract is model output without the structure a phase requires.
	KindContract Kind = "contract_violation"
	// KindRepair is executor output that stayed malformed after the repair call.
	KindRepair Kind = "json_repair_failed"
	// KindPartialPublish is a publish that stopped after writing some files.
	KindPartialPublish Kind = "partial_publish"
	// KindNotFound is a content-store path that does not exist.
	KindNotFound Kind = "not_found"
)

// Error is a classified failure.
type Error struct {
	Kind Kind
	// Op names the operation that failed (e.g. "senior.finalize", "store.upsert").
	Op  string
	Err error
	// Raw is the diagnostic payload: unparsed model output or upstream body.
	Raw string
	// URL is the upstream endpoint for transport failures.
	URL string
	// Status is the upstream HTTP status, when one was received.
	Status int
	// Written lists paths already persisted when a publish stopped part way.
	Written []string
}

// Error returns the innermost cause's text.
func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with Error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error from a message.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Newf creates a classified error from a format string.
func Newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithRaw attaches a diagnostic payload and returns the receiver.
func (e *Error) WithRaw(raw string) *Error {
	e.Raw = raw
	return e
}

// Validation is shorthand for a KindValidation error.
func Validation(op, msg string) *Error {
	return New(KindValidation, op, msg)
}

// Config reports a missing or malformed setting by name.
func Config(setting, hint string) *Error {
	if hint != "" {
		return Newf(KindConfig, "config", "missing required setting: %s (%s)", setting, hint)
	}
	return Newf(KindConfig, "config", "missing required setting: %s", setting)
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" when err is unclassified.
func KindOf(err error) Kind {
	if fe, ok := As(err); ok {
		return fe.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// RawOf returns the diagnostic payload of the first *Error in err's chain that has one.
func RawOf(err error) string {
	for err != nil {
		var fe *Error
		if !errors.As(err, &fe) {
			return ""
		}
		if fe.Raw != "" {
			return fe.Raw
		}
		err = fe.Err
	}
	return ""
}
