package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wizz/internal/agent"
	"github.com/fyrsmithlabs/wizz/internal/config"
	"github.com/fyrsmithlabs/wizz/internal/contract"
	"github.com/fyrsmithlabs/wizz/internal/failure"
	"github.com/fyrsmithlabs/wizz/internal/logging"
	"github.com/fyrsmithlabs/wizz/internal/publish"
	"github.com/fyrsmithlabs/wizz/internal/sanitize"
)

// Planner is the senior persona.
type Planner interface {
	Plan(ctx context.Context, goal, contextText string, build bool, maxTasks int) (agent.PlanOutcome, error)
	Finalize(ctx context.Context, goal, contextText string, results []agent.JuniorResult) (string, error)
	Review(ctx context.Context, goal, contextText string, results []agent.JuniorResult) (agent.ReviewOutcome, error)
}

// Executor is the junior persona.
type Executor interface {
	Execute(ctx context.Context, task, contextText string, build bool) (agent.JuniorResult, error)
}

// Publisher persists a file set.
type Publisher interface {
	Ready() error
	Publish(ctx context.Context, files []contract.File) (*publish.Receipt, error)
}

// ErrContractViolation is the cause of a build-mode review without a files array.
var ErrContractViolation = errors.New("contract violation: finalize response is not a JSON object with a files array")

// Options configures an Orchestrator.
type Options struct {
	// DefaultMaxTasks is the build-mode task cap when a request names none.
	DefaultMaxTasks int
	Limits          sanitize.Limits
	// RunTimeout bounds a whole run; zero disables it.
	RunTimeout time.Duration
	// Publisher may be nil, in which case publish requests are rejected.
	Publisher Publisher
	Logger    *logging.Logger
	Tracer    trace.Tracer
	Meter     metric.Meter
}

// OptionsFromConfig maps the orchestrator config section onto Options.
func OptionsFromConfig(oc config.OrchestratorConfig) Options {
	return Options{
		DefaultMaxTasks: oc.DefaultMaxTasks,
		Limits:          sanitize.Limits{MaxGoalChars: oc.MaxGoalChars, MaxContextChars: oc.MaxContextChars},
		RunTimeout:      oc.RunTimeout,
	}
}

// Orchestrator runs delegation requests. Runs share no mutable state, so one
// Orchestrator serves concurrent requests.
type Orchestrator struct {
	planner  Planner
	executor Executor
	opts     Options
	logger   *logging.Logger
	tracer   trace.Tracer
	metrics  *metrics
	progress ProgressCallback
}

// New creates an orchestrator.
func New(planner Planner, executor Executor, opts Options) (*Orchestrator, error) {
	if planner == nil || executor == nil {
		return nil, errors.New("orchestrator: planner and executor are required")
	}
	if opts.DefaultMaxTasks == 0 {
		opts.DefaultMaxTasks = config.DefaultTaskCap
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}
	m, err := newMetrics(opts.Meter)
	if err != nil {
		return nil, fmt.Errorf("orchestrator metrics: %w", err)
	}
	return &Orchestrator{
		planner:  planner,
		executor: executor,
		opts:     opts,
		logger:   opts.Logger.Named("orchestrator"),
		tracer:   opts.Tracer,
		metrics:  m,
	}, nil
}

// OnProgress sets the progress callback. It is called from every running
// request and must be safe for concurrent use. Set it before serving.
func (o *Orchestrator) OnProgress(callback ProgressCallback) {
	o.progress = callback
}

// RecordRepair counts an executor repair attempt. Wire it to agent.Junior.OnRepair.
func (o *Orchestrator) RecordRepair(ctx context.Context, ok bool) {
	o.metrics.recordRepair(ctx, ok)
}

// Run executes one request to completion or failure.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	req, err := o.validate(req)
	if err != nil {
		o.metrics.recordRun(ctx, req.Mode, string(failure.KindValidation))
		return nil, err
	}

	r := &run{
		o:     o,
		id:    uuid.NewString(),
		req:   req,
		phase: PhaseStart,
		cap:   EffectiveTaskCap(req.Mode, req.MaxTasks, o.opts.DefaultMaxTasks),
	}
	ctx = logging.WithRunID(ctx, r.id)

	var runTimeout error
	if o.opts.RunTimeout > 0 {
		runTimeout = failure.Newf(failure.KindTimeout, "orchestrator.run", "run timeout after %dms", o.opts.RunTimeout.Milliseconds())
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, o.opts.RunTimeout, runTimeout)
		defer cancel()
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.Run", trace.WithAttributes(
		attribute.String("run.id", r.id),
		attribute.String("mode", string(req.Mode)),
		attribute.Int("task_cap", r.cap),
		attribute.Bool("publish", req.Publish)))
	defer span.End()

	o.logger.Info(ctx, "run started",
		zap.String("mode", string(req.Mode)),
		zap.Int("task_cap", r.cap),
		zap.Bool("publish", req.Publish),
		zap.Int("goal_chars", len(req.Goal)))
	start := time.Now()

	res, err := r.execute(ctx)
	if err != nil {
		if runTimeout != nil && context.Cause(ctx) == runTimeout {
			err = runTimeout
		}
		failedIn := r.phase
		r.fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.metrics.recordRun(ctx, req.Mode, outcome(err))
		o.logger.Error(ctx, "run failed",
			zap.String("phase", string(failedIn)),
			zap.String("kind", outcome(err)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	if err := r.enter(PhaseDone, "Run complete", 100); err != nil {
		return nil, err
	}
	o.metrics.recordRun(ctx, req.Mode, "succeeded")
	o.logger.Info(ctx, "run complete", zap.Duration("duration", time.Since(start)))
	return res, nil
}

// validate rejects a request before any upstream call.
func (o *Orchestrator) validate(req Request) (Request, error) {
	const op = "orchestrator.run"

	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return req, err
	}
	req.Mode = mode

	if req.Goal, err = o.opts.Limits.Goal(op, req.Goal); err != nil {
		return req, err
	}
	if req.Context, err = o.opts.Limits.Context(op, req.Context); err != nil {
		return req, err
	}

	if req.Publish {
		if !mode.Builds() {
			return req, failure.Validation(op, "publish requires build or fast-build mode")
		}
		if o.opts.Publisher == nil {
			return req, failure.Config("github.token", "GITHUB_TOKEN")
		}
		if err := o.opts.Publisher.Ready(); err != nil {
			return req, err
		}
	}
	return req, nil
}

func outcome(err error) string {
	if k := failure.KindOf(err); k != "" {
		return string(k)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "internal"
}

// run is the state of one request. It is owned by a single goroutine.
type run struct {
	o     *Orchestrator
	id    string
	req   Request
	phase Phase
	cap   int
	log   DelegationLog
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	switch r.req.Mode {
	case ModeBuild:
		return r.build(ctx)
	case ModeFastBuild:
		return r.fastBuild(ctx)
	default:
		return r.answer(ctx)
	}
}

// answer is the default mode: plan, execute, finalize as free text.
func (r *run) answer(ctx context.Context) (*Result, error) {
	if err := r.plan(ctx, false); err != nil {
		return nil, err
	}
	if err := r.executeAll(ctx, false); err != nil {
		return nil, err
	}

	if err := r.enter(PhaseFinalize, "Senior is writing the final answer", 85); err != nil {
		return nil, err
	}
	pctx, end := r.span(ctx, PhaseFinalize)
	final, err := r.o.planner.Finalize(pctx, r.req.Goal, r.req.Context, r.log.JuniorResults)
	end(err)
	if err != nil {
		return nil, err
	}

	return &Result{
		RunID:      r.id,
		Mode:       r.req.Mode,
		TextResult: &TextResult{FinalAnswer: final, DelegationLog: r.log},
	}, nil
}

// build is build mode: plan, execute, review, optionally publish.
func (r *run) build(ctx context.Context) (*Result, error) {
	if err := r.plan(ctx, true); err != nil {
		return nil, err
	}
	if err := r.executeAll(ctx, true); err != nil {
		return nil, err
	}

	merged := NewFileSet()
	for _, jr := range r.log.JuniorResults {
		merged.Merge(jr.Files)
	}
	r.log.MergedFiles = merged.Paths()

	if err := r.enter(PhaseFinalize, "Senior is reviewing the files", 85); err != nil {
		return nil, err
	}
	pctx, end := r.span(ctx, PhaseFinalize, attribute.Int("merged_files", merged.Len()))
	review, err := r.o.planner.Review(pctx, r.req.Goal, r.req.Context, r.log.JuniorResults)
	if err == nil {
		r.log.ReviewRaw = review.Raw
		if v, ok := review.Result.(contract.ContractViolation); ok {
			err = &failure.Error{Kind: failure.KindContract, Op: "senior.review", Err: ErrContractViolation, Raw: v.Raw}
		}
	}
	end(err)
	if err != nil {
		return nil, err
	}

	reviewed := review.Result.(contract.Reviewed)
	final := NewFileSet()
	final.Merge(reviewed.Files)

	return r.finish(ctx, final, reviewed.Summary)
}

// fastBuild is one executor build call carrying the whole goal and context.
func (r *run) fastBuild(ctx context.Context) (*Result, error) {
	r.log.Tasks = []string{}
	if err := r.enter(PhaseFastBuild, "Junior is building in a single pass", 20); err != nil {
		return nil, err
	}

	pctx, end := r.span(ctx, PhaseFastBuild)
	jr, err := r.o.executor.Execute(pctx, r.req.Goal, r.req.Context, true)
	end(err)
	if err != nil {
		return nil, err
	}
	r.log.JuniorResults = []agent.JuniorResult{jr}

	files := NewFileSet()
	files.Merge(jr.Files)
	r.log.MergedFiles = files.Paths()

	summary := jr.Summary
	if summary == "" {
		summary = fmt.Sprintf("Built %d file(s) in a single pass.", files.Len())
	}
	return r.finish(ctx, files, summary)
}

// finish assembles the build result and publishes when requested.
func (r *run) finish(ctx context.Context, files *FileSet, summary string) (*Result, error) {
	out := &BuildResult{
		FilesBuilt:   files.Paths(),
		Files:        files.Files(),
		FinalSummary: summary,
		Diagnostics:  r.log,
	}

	if r.req.Publish {
		if err := r.enter(PhasePublish, fmt.Sprintf("Publishing %d file(s)", files.Len()), 90); err != nil {
			return nil, err
		}
		pctx, end := r.span(ctx, PhasePublish, attribute.Int("files", files.Len()))
		receipt, err := r.o.opts.Publisher.Publish(pctx, out.Files)
		end(err)
		if err != nil {
			return nil, err
		}
		out.Publish = receipt
		out.PublishStatus = fmt.Sprintf("Published %d file(s) to %s", len(receipt.Wrote), receipt.Target)
	}

	return &Result{RunID: r.id, Mode: r.req.Mode, BuildResult: out}, nil
}

// plan runs the plan phase and applies the fallback and the cap.
func (r *run) plan(ctx context.Context, build bool) error {
	if err := r.enter(PhasePlan, "Senior is planning", 10); err != nil {
		return err
	}

	pctx, end := r.span(ctx, PhasePlan)
	p, err := r.o.planner.Plan(pctx, r.req.Goal, r.req.Context, build, r.cap)
	end(err)
	if err != nil {
		return err
	}

	tasks := p.Tasks()
	r.log.Plan = &PlanLog{Model: p.Model, Raw: p.Raw, Tasks: tasks}
	if len(tasks) == 0 {
		r.log.Plan.Fallback = true
		tasks = []string{fallbackTask(r.req.Goal, build)}
		r.o.metrics.recordFallback(ctx, r.req.Mode)
		r.o.logger.Warn(ctx, "plan unusable, falling back to a single task", zap.Int("response_chars", len(p.Raw)))
	}
	if len(tasks) > r.cap {
		tasks = tasks[:r.cap]
	}
	r.log.Tasks = append([]string(nil), tasks...)
	return nil
}

func fallbackTask(goal string, build bool) string {
	if build {
		return "Build a minimal static site (index.html, styles.css, app.js) for this goal: " + goal
	}
	return goal
}

// executeAll runs the planned tasks one at a time, in order.
func (r *run) executeAll(ctx context.Context, build bool) error {
	k := len(r.log.Tasks)
	r.log.JuniorResults = make([]agent.JuniorResult, 0, k)

	for i, task := range r.log.Tasks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled before task %d: %w", i+1, context.Cause(ctx))
		}
		if err := r.enter(PhaseExecute, fmt.Sprintf("Junior is executing task %d of %d", i+1, k), 20+(60*i)/k); err != nil {
			return err
		}

		pctx, end := r.span(ctx, PhaseExecute, attribute.Int("task.index", i), attribute.Int("task.count", k))
		jr, err := r.o.executor.Execute(pctx, task, r.req.Context, build)
		end(err)
		if err != nil {
			return err
		}
		jr.Task = task
		r.log.JuniorResults = append(r.log.JuniorResults, jr)
	}
	return nil
}

// enter moves the run to next and reports it.
func (r *run) enter(next Phase, msg string, pct int) error {
	if !canTransition(r.phase, next) {
		return fmt.Errorf("orchestrator: illegal transition %s -> %s", r.phase, next)
	}
	if r.o.progress != nil && r.phase != PhaseStart && r.phase != next {
		r.report(r.phase, StatusCompleted, "", pct)
	}
	r.phase = next
	status := StatusInProgress
	if next == PhaseDone {
		status = StatusCompleted
	}
	r.report(next, status, msg, pct)
	return nil
}

func (r *run) fail(err error) {
	r.phase = PhaseFailed
	r.report(PhaseFailed, StatusFailed, err.Error(), 100)
}

func (r *run) report(phase Phase, status PhaseStatus, msg string, pct int) {
	if r.o.progress == nil {
		return
	}
	r.o.progress(PhaseProgress{RunID: r.id, Phase: phase, Status: status, Message: msg, Percentage: pct})
}

// span starts a phase span; the returned func ends it and records the duration.
func (r *run) span(ctx context.Context, phase Phase, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := r.o.tracer.Start(ctx, "orchestrator."+string(phase), trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		r.o.metrics.recordPhase(ctx, phase, start)
	}
}
