package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wizz/internal/contract"
	"github.com/fyrsmithlabs/wizz/internal/failure"
	"github.com/fyrsmithlabs/wizz/internal/llm"
	"github.com/fyrsmithlabs/wizz/internal/logging"
	"github.com/fyrsmithlabs/wizz/internal/secrets"
)

// Senior is the planning and reviewing persona.
type Senior struct {
	client llm.Client
	out    outbound
	logger *logging.Logger
}

// NewSenior creates a senior over client. scrubber may be nil.
func NewSenior(client llm.Client, scrubber secrets.Scrubber, logger *logging.Logger) *Senior {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.Named("senior")
	return &Senior{client: client, out: outbound{scrubber: scrubber, logger: logger}, logger: logger}
}

// Model returns the senior model identifier.
func (s *Senior) Model() string {
	return s.client.Model()
}

// Plan asks for a task list of at most maxTasks entries.
// An unparsed plan is not an error; the caller decides the fallback.
func (s *Senior) Plan(ctx context.Context, goal, contextText string, build bool, maxTasks int) (PlanOutcome, error) {
	user := sections(
		[2]string{"", "PHASE: PLAN"},
		[2]string{"GOAL", s.out.scrub(ctx, "goal", goal)},
		[2]string{"CONTEXT", s.out.scrub(ctx, "context", contextText)},
	)

	raw, err := s.client.Complete(ctx, []llm.Message{llm.System(planSystem(build, maxTasks)), llm.User(user)})
	if err != nil {
		return PlanOutcome{}, annotate(err, "senior.plan")
	}

	out := PlanOutcome{Model: s.client.Model(), Raw: raw, Result: contract.DecodePlan(raw)}
	if _, ok := out.Result.(contract.Unparsed); ok {
		s.logger.Warn(ctx, "plan response had no tasks", zap.Int("response_chars", len(raw)))
	}
	return out, nil
}

// Finalize asks for the general-mode final answer. The raw text is accepted as is.
func (s *Senior) Finalize(ctx context.Context, goal, contextText string, results []JuniorResult) (string, error) {
	user, err := s.finalizeUser(ctx, goal, contextText, results)
	if err != nil {
		return "", err
	}
	raw, err := s.client.Complete(ctx, []llm.Message{llm.System(finalizeSystem()), llm.User(user)})
	if err != nil {
		return "", annotate(err, "senior.finalize")
	}
	return raw, nil
}

// Review asks for the build-mode reviewed file set. A response without a
// files array comes back as contract.ContractViolation; there is no repair.
func (s *Senior) Review(ctx context.Context, goal, contextText string, results []JuniorResult) (ReviewOutcome, error) {
	user, err := s.finalizeUser(ctx, goal, contextText, results)
	if err != nil {
		return ReviewOutcome{}, err
	}
	raw, err := s.client.Complete(ctx, []llm.Message{llm.System(reviewSystem()), llm.User(user)})
	if err != nil {
		return ReviewOutcome{}, annotate(err, "senior.review")
	}
	return ReviewOutcome{Model: s.client.Model(), Raw: raw, Result: contract.DecodeBuildFinal(raw)}, nil
}

func (s *Senior) finalizeUser(ctx context.Context, goal, contextText string, results []JuniorResult) (string, error) {
	payload, err := json.MarshalIndent(reviewPayload(results), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode junior results: %w", err)
	}
	return sections(
		[2]string{"", "PHASE: FINALIZE"},
		[2]string{"GOAL", s.out.scrub(ctx, "goal", goal)},
		[2]string{"CONTEXT", s.out.scrub(ctx, "context", contextText)},
		[2]string{"JUNIOR_RESULTS", s.out.scrub(ctx, "junior_results", string(payload))},
	), nil
}

// reviewPayload drops the diagnostic fields the senior does not need.
func reviewPayload(results []JuniorResult) []JuniorResult {
	out := make([]JuniorResult, len(results))
	for i, r := range results {
		out[i] = JuniorResult{Task: r.Task, Result: r.Result, Files: r.Files, FilesBuilt: r.FilesBuilt, Summary: r.Summary}
	}
	return out
}

// annotate sets Op on an unnamed classified error.
func annotate(err error, op string) error {
	if fe, ok := failure.As(err); ok && (fe.Op == "" || fe.Op == "llm.complete") {
		fe.Op = op
	}
	return err
}
