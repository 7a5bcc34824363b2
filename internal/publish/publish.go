// Package publish persists a validated file list to the content store, one
// upsert per file, in order.
//
// Publishing is not atomic. When an upsert fails the loop stops, files that
// were already written stay written, and the error lists them.
package publish

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wizz/internal/config"
	"github.com/fyrsmithlabs/wizz/internal/contract"
	"github.com/fyrsmithlabs/wizz/internal/failure"
	"github.com/fyrsmithlabs/wizz/internal/logging"
	"github.com/fyrsmithlabs/wizz/internal/sanitize"
	"github.com/fyrsmithlabs/wizz/internal/store"
)

// Store is the write side of the content store.
type Store interface {
	Upsert(ctx context.Context, path, content, message string) (*store.CommitResult, error)
	Target() string
}

// Receipt is the outcome of a successful publish.
type Receipt struct {
	OK     bool     `json:"ok"`
	Wrote  []string `json:"wrote"`
	Target string   `json:"target"`
}

// Publisher validates and writes file lists.
type Publisher struct {
	store    Store
	cfg      config.PublishConfig
	notReady error
	logger   *logging.Logger
}

// New creates a publisher over st.
func New(st Store, cfg config.PublishConfig, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.MaxFiles <= 0 || cfg.MaxFiles > config.MaxPublishFiles {
		cfg.MaxFiles = config.MaxPublishFiles
	}
	if cfg.CommitPrefix == "" {
		cfg.CommitPrefix = "Wizz publish"
	}
	return &Publisher{store: st, cfg: cfg, logger: logger.Named("publish")}
}

// Unavailable returns a publisher that reports reason from Ready and Publish.
// The daemon uses it when the content store is not configured.
func Unavailable(reason error) *Publisher {
	return &Publisher{notReady: reason, cfg: config.PublishConfig{MaxFiles: config.MaxPublishFiles}, logger: logging.NewNop()}
}

// Ready reports the missing setting when the content store is not configured.
func (p *Publisher) Ready() error {
	if p.notReady != nil {
		return p.notReady
	}
	if p.store == nil {
		return failure.Config("github.token", "GITHUB_TOKEN")
	}
	return nil
}

// Target returns the store target, or "" when not configured.
func (p *Publisher) Target() string {
	if p.store == nil {
		return ""
	}
	return p.store.Target()
}

// Validate checks a file list without touching the store: 1 to max_files
// entries, each with a non-empty relative path free of ".." segments.
// Duplicate paths are rejected so each path is written once.
func (p *Publisher) Validate(files []contract.File) error {
	const op = "publish.validate"
	if len(files) == 0 {
		return failure.Validation(op, "Missing: files[] {path, content}")
	}
	if len(files) > p.cfg.MaxFiles {
		return failure.Validation(op, fmt.Sprintf("Too many files (max %d).", p.cfg.MaxFiles))
	}

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if f.Path == "" {
			return failure.Validation(op, "Each file must have { path, content }")
		}
		valid, err := sanitize.RepoPath(f.Path)
		if err != nil {
			return failure.Wrap(failure.KindValidation, op, fmt.Errorf("Invalid path %q: %w", f.Path, err))
		}
		clean := sanitize.Clean(valid)
		if clean == "" {
			return failure.Validation(op, "Each file must have { path, content }")
		}
		if seen[clean] {
			return failure.Validation(op, fmt.Sprintf("Duplicate path %q.", clean))
		}
		seen[clean] = true
	}
	return nil
}

// Publish validates files and upserts them in order with the commit message
// "<prefix>: <path>". A failure after some writes is a failure.KindPartialPublish
// error whose Written field lists the persisted paths.
func (p *Publisher) Publish(ctx context.Context, files []contract.File) (*Receipt, error) {
	if err := p.Ready(); err != nil {
		return nil, err
	}
	if err := p.Validate(files); err != nil {
		return nil, err
	}

	wrote := make([]string, 0, len(files))
	for _, f := range files {
		valid, _ := sanitize.RepoPath(f.Path)
		path := sanitize.Clean(valid)
		msg := fmt.Sprintf("%s: %s", p.cfg.CommitPrefix, path)
		if _, err := p.store.Upsert(ctx, path, f.Content, msg); err != nil {
			p.logger.Error(ctx, "publish stopped part way",
				zap.String("failed_path", path),
				zap.Strings("written", wrote),
				zap.Error(err))
			return nil, partial(err, path, wrote)
		}
		wrote = append(wrote, path)
		p.logger.Debug(ctx, "published file", zap.String("path", path))
	}

	p.logger.Info(ctx, "publish complete",
		zap.String("target", p.store.Target()),
		zap.Int("files", len(wrote)))
	return &Receipt{OK: true, Wrote: wrote, Target: p.store.Target()}, nil
}

// partial wraps an upsert failure, keeping the store's classification
// reachable through the chain. Nothing written means nothing partial: the
// store's own failure is returned with the failing path.
func partial(err error, path string, wrote []string) error {
	if len(wrote) == 0 {
		if inner, ok := failure.As(err); ok {
			out := *inner
			out.Op = "publish"
			out.Err = fmt.Errorf("%s: %w", path, err)
			return &out
		}
		return failure.Wrap(failure.KindUpstream, "publish", fmt.Errorf("%s: %w", path, err))
	}
	fe := &failure.Error{
		Kind:    failure.KindPartialPublish,
		Op:      "publish",
		Err:     fmt.Errorf("%s: %w", path, err),
		Written: append([]string(nil), wrote...),
	}
	var inner *failure.Error
	if errors.As(err, &inner) {
		fe.URL = inner.URL
		fe.Status = inner.Status
		fe.Raw = inner.Raw
	}
	return fe
}
