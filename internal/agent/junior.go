package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wizz/internal/contract"
	"github.com/fyrsmithlabs/wizz/internal/failure"
	"github.com/fyrsmithlabs/wizz/internal/llm"
	"github.com/fyrsmithlabs/wizz/internal/logging"
	"github.com/fyrsmithlabs/wizz/internal/secrets"
)

// RepairObserver is told whether a build-mode call needed a repair and how it ended.
type RepairObserver func(ctx context.Context, succeeded bool)

// Junior is the task-executing persona.
type Junior struct {
	client   llm.Client
	out      outbound
	logger   *logging.Logger
	onRepair RepairObserver
}

// NewJunior creates a junior over client. scrubber may be nil.
func NewJunior(client llm.Client, scrubber secrets.Scrubber, logger *logging.Logger) *Junior {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.Named("junior")
	return &Junior{client: client, out: outbound{scrubber: scrubber, logger: logger}, logger: logger}
}

// OnRepair registers an observer for repair attempts.
func (j *Junior) OnRepair(fn RepairObserver) {
	j.onRepair = fn
}

// Model returns the junior model identifier.
func (j *Junior) Model() string {
	return j.client.Model()
}

// Execute runs one task. In general mode the raw text is the result. In build
// mode the response must decode to a files object, with one repair attempt.
func (j *Junior) Execute(ctx context.Context, task, contextText string, build bool) (JuniorResult, error) {
	user := sections(
		[2]string{"TASK", j.out.scrub(ctx, "task", task)},
		[2]string{"CONTEXT", j.out.scrub(ctx, "context", contextText)},
	)
	messages := []llm.Message{llm.System(executeSystem(build)), llm.User(user)}

	if !build {
		raw, err := j.client.Complete(ctx, messages)
		if err != nil {
			return JuniorResult{}, annotate(err, "junior.execute")
		}
		return JuniorResult{Task: task, Result: raw}, nil
	}

	out, err := contract.CallWithRepair(ctx, j.client, messages, contract.DecodeFiles, contract.FilesRepair)
	if out.Repaired {
		j.logger.Warn(ctx, "executor output needed a JSON repair",
			zap.Bool("succeeded", err == nil),
			zap.Int("response_chars", len(out.Raw)))
		if j.onRepair != nil && (err == nil || failure.Is(err, failure.KindRepair)) {
			j.onRepair(ctx, err == nil)
		}
	}
	if err != nil {
		return JuniorResult{}, annotate(err, "junior.execute")
	}

	raw := out.Raw
	if out.Repaired {
		raw = out.RepairedRaw
	}
	return JuniorResult{
		Task:       task,
		Files:      out.Value.Files,
		FilesBuilt: out.Value.FilesBuilt,
		Summary:    out.Value.Summary,
		Raw:        raw,
		Repaired:   out.Repaired,
	}, nil
}
