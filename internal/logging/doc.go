// Package logging is the structured logger shared by wizzd and its components.
//
// It wraps Zap with a Trace level below Debug for prompts and raw model
// output, correlation fields taken from the context (trace_id, span_id,
// request.id, run.id), credential redaction on the stdout sink and an
// optional OpenTelemetry log bridge. Repeated entries below Warn are sampled.
//
//	cfg, err := logging.FromAppConfig(appCfg.Log, "wizzd", false)
//	logger, err := logging.NewLogger(cfg, nil)
//	defer logger.Sync()
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.Info(ctx, "phase completed", zap.String("phase", "plan"))
//
// Tests capture entries with NewTestLogger:
//
//	tl := logging.NewTestLogger()
//	orch, _ := orchestrator.New(senior, junior, orchestrator.Options{Logger: tl.Logger})
//	tl.AssertLogged(t, zapcore.WarnLevel, "plan fallback")
package logging
