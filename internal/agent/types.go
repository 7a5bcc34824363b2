package agent

import (
	"github.com/fyrsmithlabs/wizz/internal/contract"
)

// JuniorResult pairs a task with what the junior produced for it.
type JuniorResult struct {
	Task string `json:"task"`
	// Result is the free-text answer in general mode.
	Result     string          `json:"result,omitempty"`
	Files      []contract.File `json:"files,omitempty"`
	FilesBuilt []string        `json:"files_built,omitempty"`
	Summary    string          `json:"summary,omitempty"`
	// Raw is the response the files were decoded from.
	Raw      string `json:"raw,omitempty"`
	Repaired bool   `json:"repaired,omitempty"`
}

// PlanOutcome is the senior's plan phase output.
type PlanOutcome struct {
	Model  string
	Raw    string
	Result contract.PlanResult
}

// Tasks returns the planned tasks, or nil when the plan was unparsed.
func (p PlanOutcome) Tasks() []string {
	if t, ok := p.Result.(contract.Tasks); ok {
		return t
	}
	return nil
}

// ReviewOutcome is the senior's build-mode finalize output.
type ReviewOutcome struct {
	Model  string
	Raw    string
	Result contract.BuildFinalResult
}
