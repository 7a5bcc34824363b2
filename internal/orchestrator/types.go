package orchestrator

import (
	"fmt"

	"github.com/fyrsmithlabs/wizz/internal/agent"
	"github.com/fyrsmithlabs/wizz/internal/contract"
	"github.com/fyrsmithlabs/wizz/internal/failure"
	"github.com/fyrsmithlabs/wizz/internal/publish"
)

// Mode selects the orchestration variant.
type Mode string

const (
	// ModeDefault produces a free-text answer.
	ModeDefault Mode = "default"
	// ModeBuild produces a reviewed static file set.
	ModeBuild Mode = "build"
	// ModeFastBuild produces a file set from one executor call.
	ModeFastBuild Mode = "fast-build"
)

// ParseMode maps a request value onto a Mode. Empty means ModeDefault.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDefault:
		return ModeDefault, nil
	case ModeBuild, ModeFastBuild:
		return Mode(s), nil
	}
	return "", failure.Validation("orchestrator.run", fmt.Sprintf("Unknown mode %q (want default, build or fast-build)", s))
}

// Builds reports whether the mode produces files.
func (m Mode) Builds() bool {
	return m == ModeBuild || m == ModeFastBuild
}

// Phase is a state of the run state machine.
type Phase string

const (
	PhaseStart     Phase = "start"
	PhasePlan      Phase = "plan"
	PhaseExecute   Phase = "execute"
	PhaseFinalize  Phase = "finalize"
	PhaseFastBuild Phase = "fast_build"
	PhasePublish   Phase = "publish"
	PhaseDone      Phase = "done"
	PhaseFailed    Phase = "failed"
)

// transitions lists the legal successors of each phase. PhaseFailed is
// reachable from every non-terminal phase and is not listed.
var transitions = map[Phase][]Phase{
	PhaseStart:     {PhasePlan, PhaseFastBuild},
	PhasePlan:      {PhaseExecute},
	PhaseExecute:   {PhaseExecute, PhaseFinalize},
	PhaseFinalize:  {PhasePublish, PhaseDone},
	PhaseFastBuild: {PhasePublish, PhaseDone},
	PhasePublish:   {PhaseDone},
}

func canTransition(from, to Phase) bool {
	if from == PhaseDone || from == PhaseFailed {
		return false
	}
	if to == PhaseFailed {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PhaseStatus is the status reported with a progress event.
type PhaseStatus string

const (
	StatusInProgress PhaseStatus = "in_progress"
	StatusCompleted  PhaseStatus = "completed"
	StatusFailed     PhaseStatus = "failed"
)

// PhaseProgress reports a state transition of a run.
type PhaseProgress struct {
	RunID      string      `json:"run_id"`
	Phase      Phase       `json:"phase"`
	Status     PhaseStatus `json:"status"`
	Message    string      `json:"message"`
	Percentage int         `json:"percentage"`
}

// ProgressCallback receives progress updates during a run.
type ProgressCallback func(progress PhaseProgress)

// Request is the orchestrator entry contract.
type Request struct {
	Goal    string `json:"goal"`
	Context string `json:"context,omitempty"`
	Mode    Mode   `json:"mode,omitempty"`
	Publish bool   `json:"publish,omitempty"`
	// MaxTasks is honored in build mode only; nil selects the configured default.
	MaxTasks *int `json:"max_tasks,omitempty"`
}

// PlanLog records the plan phase.
type PlanLog struct {
	Model string `json:"model"`
	Raw   string `json:"raw"`
	// Tasks is what the planner emitted, nil when its output was unparsed.
	Tasks    []string `json:"tasks"`
	Fallback bool     `json:"fallback"`
}

// DelegationLog records what happened between the goal and the final output.
type DelegationLog struct {
	// Plan is nil in fast-build mode.
	Plan          *PlanLog             `json:"plan"`
	Tasks         []string             `json:"tasks"`
	JuniorResults []agent.JuniorResult `json:"junior_results"`
	// MergedFiles lists the paths of the executor FileSet in merge order.
	MergedFiles []string `json:"merged_files,omitempty"`
	// ReviewRaw is the raw build-mode finalize response.
	ReviewRaw string `json:"review_raw,omitempty"`
}

// TextResult is the default-mode output.
type TextResult struct {
	FinalAnswer   string        `json:"final_answer"`
	DelegationLog DelegationLog `json:"delegation_log"`
}

// BuildResult is the build and fast-build output.
type BuildResult struct {
	FilesBuilt    []string         `json:"files_built"`
	Files         []contract.File  `json:"files"`
	FinalSummary  string           `json:"final_summary"`
	PublishStatus string           `json:"publish_status,omitempty"`
	Publish       *publish.Receipt `json:"publish,omitempty"`
	Diagnostics   DelegationLog    `json:"diagnostics"`
}

// Result is a completed run. Exactly one of TextResult and BuildResult is set.
type Result struct {
	RunID string `json:"run_id"`
	Mode  Mode   `json:"mode"`
	*TextResult
	*BuildResult
}
