// Package telemetry provides OpenTelemetry instrumentation for wizz.
//
// Traces and metrics are exported over OTLP (gRPC by default, or
// http/protobuf) to a collector. Telemetry is disabled by default; when
// disabled or degraded, Tracer and Meter return the global no-op providers so
// instrumented code never has to check.
//
//	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Observability, version))
//	defer tel.Shutdown(ctx)
//
//	ctx, span := tel.Tracer("wizz.orchestrator").Start(ctx, "orchestrator.Run")
//	defer span.End()
//
// Tests use NewTestTelemetry, which records ended spans in memory and exposes
// a manual metric reader:
//
//	tt := telemetry.NewTestTelemetry()
//	tt.AssertSpanExists(t, "orchestrator.plan")
//	runs := tt.CounterValue(t, "wizz.runs_total", attribute.String("mode", "build"))
package telemetry
