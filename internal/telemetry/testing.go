package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTelemetry records ended spans and reads metrics on demand.
type TestTelemetry struct {
	*Telemetry

	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
}

// NewTestTelemetry returns an enabled Telemetry backed by in-memory providers.
func NewTestTelemetry() *TestTelemetry {
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	return &TestTelemetry{
		Telemetry: &Telemetry{
			cfg:     cfg,
			traces:  trace.NewTracerProvider(trace.WithSpanProcessor(spans)),
			metrics: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		},
		spans:  spans,
		reader: reader,
	}
}

func (t *TestTelemetry) span(name string) (trace.ReadOnlySpan, []string) {
	var names []string
	for _, s := range t.spans.Ended() {
		if s.Name() == name {
			return s, nil
		}
		names = append(names, s.Name())
	}
	return nil, names
}

// AssertSpanExists fails tb unless a span called name has ended.
func (t *TestTelemetry) AssertSpanExists(tb testing.TB, name string) {
	tb.Helper()
	if s, seen := t.span(name); s == nil {
		tb.Errorf("span %q not recorded; ended spans: %v", name, seen)
	}
}

// AssertSpanAttribute fails tb unless the span called name carries key=want.
// Integer attributes compare as int64.
func (t *TestTelemetry) AssertSpanAttribute(tb testing.TB, name, key string, want interface{}) {
	tb.Helper()
	s, seen := t.span(name)
	if s == nil {
		tb.Fatalf("span %q not recorded; ended spans: %v", name, seen)
	}
	for _, kv := range s.Attributes() {
		if string(kv.Key) != key {
			continue
		}
		if got := kv.Value.AsInterface(); got != want {
			tb.Errorf("span %q attribute %q = %v, want %v", name, key, got, want)
		}
		return
	}
	tb.Errorf("span %q has no attribute %q", name, key)
}

// CounterValue sums the int64 counter called name over the data points that
// carry every attr.
func (t *TestTelemetry) CounterValue(tb testing.TB, name string, attrs ...attribute.KeyValue) int64 {
	tb.Helper()
	var total int64
	t.eachMetric(tb, name, func(data metricdata.Aggregation) {
		if sum, ok := data.(metricdata.Sum[int64]); ok {
			for _, dp := range sum.DataPoints {
				if carries(dp.Attributes, attrs) {
					total += dp.Value
				}
			}
		}
	})
	return total
}

// HistogramCount counts recordings of the float64 histogram called name over
// the data points that carry every attr.
func (t *TestTelemetry) HistogramCount(tb testing.TB, name string, attrs ...attribute.KeyValue) uint64 {
	tb.Helper()
	var count uint64
	t.eachMetric(tb, name, func(data metricdata.Aggregation) {
		if hist, ok := data.(metricdata.Histogram[float64]); ok {
			for _, dp := range hist.DataPoints {
				if carries(dp.Attributes, attrs) {
					count += dp.Count
				}
			}
		}
	})
	return count
}

func (t *TestTelemetry) eachMetric(tb testing.TB, name string, fn func(metricdata.Aggregation)) {
	tb.Helper()
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(context.Background(), &rm); err != nil {
		tb.Fatalf("collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				fn(m.Data)
			}
		}
	}
}

func carries(set attribute.Set, want []attribute.KeyValue) bool {
	for _, kv := range want {
		if v, ok := set.Value(kv.Key); !ok || v != kv.Value {
			return false
		}
	}
	return true
}
