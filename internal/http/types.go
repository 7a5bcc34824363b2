package http

import (
	"github.com/fyrsmithlabs/wizz/internal/contract"
	"github.com/fyrsmithlabs/wizz/internal/store"
	"github.com/fyrsmithlabs/wizz/internal/telemetry"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	PublishReady bool   `json:"publish_ready"`

	Telemetry *telemetry.HealthStatus `json:"telemetry,omitempty"`
}

// RunRequest is the request body for POST /api/v1/run.
type RunRequest struct {
	Goal     string `json:"goal"`
	Context  string `json:"context"`
	Mode     string `json:"mode"`
	Publish  bool   `json:"publish"`
	MaxTasks *int   `json:"max_tasks"`
}

// PlanRequest is the request body for POST /api/v1/plan.
type PlanRequest struct {
	Goal     string `json:"goal"`
	Context  string `json:"context"`
	Build    bool   `json:"build"`
	MaxTasks *int   `json:"max_tasks"`
}

// PlanResponse is the response body for POST /api/v1/plan. Tasks is empty
// when the planner's output could not be parsed.
type PlanResponse struct {
	Model  string   `json:"model"`
	Raw    string   `json:"raw"`
	Tasks  []string `json:"tasks"`
	Parsed bool     `json:"parsed"`
}

// ExecuteRequest is the request body for POST /api/v1/execute.
type ExecuteRequest struct {
	Task    string `json:"task"`
	Context string `json:"context"`
	Build   bool   `json:"build"`
}

// PublishRequest is the request body for POST /api/v1/publish.
type PublishRequest struct {
	Files []contract.File `json:"files"`
}

// FileResponse is the response body for GET /api/v1/repo/file.
type FileResponse struct {
	OK      bool   `json:"ok"`
	Target  string `json:"target"`
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	Size    int    `json:"size"`
	Content string `json:"content"`
}

// TreeResponse is the response body for GET /api/v1/repo/tree.
type TreeResponse struct {
	OK     bool              `json:"ok"`
	Target string            `json:"target"`
	Files  []store.TreeEntry `json:"files"`
}
