// Package events publishes run progress to NATS.
//
// Each orchestrator PhaseProgress is published as JSON to
//
//	<prefix>.<run_id>.<phase>
//
// so a subscriber can follow one run with "<prefix>.<run_id>.>" or every run
// with "<prefix>.>". Publishing is fire-and-forget: a failed publish is logged
// and never fails the run.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wizz/internal/config"
	"github.com/fyrsmithlabs/wizz/internal/logging"
	"github.com/fyrsmithlabs/wizz/internal/orchestrator"
)

// DefaultSubjectPrefix is used when the events config names none.
const DefaultSubjectPrefix = "wizz.runs"

// Publisher sends progress events over a NATS connection.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	owned  bool
	logger *logging.Logger
}

// Connect dials the configured NATS server. It returns (nil, nil) when no
// URL is configured; a nil *Publisher is a valid no-op.
func Connect(cfg config.EventsConfig, logger *logging.Logger) (*Publisher, error) {
	if cfg.NATSURL == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.Named("events")

	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("wizzd"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn(context.Background(), "nats disconnected", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATSURL, err)
	}

	p := New(nc, cfg.SubjectPrefix, logger)
	p.owned = true
	logger.Info(context.Background(), "connected to NATS", zap.String("url", cfg.NATSURL))
	return p, nil
}

// New wraps an existing connection. Close leaves nc open.
func New(nc *nats.Conn, prefix string, logger *logging.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{nc: nc, prefix: prefix, logger: logger}
}

// Subject returns the subject a progress event is published to.
func (p *Publisher) Subject(runID string, phase orchestrator.Phase) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, runID, phase)
}

// Publish sends one progress event.
func (p *Publisher) Publish(progress orchestrator.PhaseProgress) error {
	if p == nil {
		return nil
	}
	if progress.RunID == "" {
		return errors.New("progress event has no run id")
	}
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	if err := p.nc.Publish(p.Subject(progress.RunID, progress.Phase), data); err != nil {
		return fmt.Errorf("publish progress: %w", err)
	}
	return nil
}

// Handle is an orchestrator.ProgressCallback.
func (p *Publisher) Handle(progress orchestrator.PhaseProgress) {
	if p == nil {
		return
	}
	if err := p.Publish(progress); err != nil {
		ctx := context.Background()
		if logging.ValidateID(progress.RunID, "run id") == nil {
			ctx = logging.WithRunID(ctx, progress.RunID)
		}
		p.logger.Warn(ctx, "failed to publish progress event",
			zap.String("phase", string(progress.Phase)),
			zap.Error(err))
	}
}

// Close drains the connection when Connect opened it.
func (p *Publisher) Close() error {
	if p == nil || !p.owned {
		return nil
	}
	return p.nc.Drain()
}
