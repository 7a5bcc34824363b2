package orchestrator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/fyrsmithlabs/wizz/internal/orchestrator"

// metrics holds the orchestrator instruments.
type metrics struct {
	runs          metric.Int64Counter
	repairs       metric.Int64Counter
	planFallbacks metric.Int64Counter
	phaseDuration metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(instrumentationName)
	}

	runs, err := meter.Int64Counter("wizz.runs_total",
		metric.WithDescription("Orchestration runs by mode and outcome"),
		metric.WithUnit("{run}"))
	if err != nil {
		return nil, err
	}
	repairs, err := meter.Int64Counter("wizz.repairs_total",
		metric.WithDescription("Executor JSON repair attempts by outcome"),
		metric.WithUnit("{repair}"))
	if err != nil {
		return nil, err
	}
	fallbacks, err := meter.Int64Counter("wizz.plan_fallbacks_total",
		metric.WithDescription("Plans replaced by a synthesized task"),
		metric.WithUnit("{plan}"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("wizz.phase_duration_seconds",
		metric.WithDescription("Duration of each run phase"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &metrics{runs: runs, repairs: repairs, planFallbacks: fallbacks, phaseDuration: duration}, nil
}

func (m *metrics) recordRun(ctx context.Context, mode Mode, outcome string) {
	m.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", string(mode)),
		attribute.String("outcome", outcome)))
}

func (m *metrics) recordRepair(ctx context.Context, ok bool) {
	outcome := "failed"
	if ok {
		outcome = "repaired"
	}
	m.repairs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *metrics) recordFallback(ctx context.Context, mode Mode) {
	m.planFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", string(mode))))
}

func (m *metrics) recordPhase(ctx context.Context, phase Phase, start time.Time) {
	m.phaseDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("phase", string(phase))))
}
