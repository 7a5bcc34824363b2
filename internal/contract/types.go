package contract

import (
	"encoding/json"
	"strings"
)

// File is one generated file.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// PlanResult is the planner's first-phase output: Tasks or Unparsed.
type PlanResult interface {
	planResult()
}

// Tasks is an ordered, non-empty task list.
type Tasks []string

// Unparsed is a plan response that did not yield any task.
type Unparsed struct {
	Raw string
}

func (Tasks) planResult()    {}
func (Unparsed) planResult() {}

// BuildFinalResult is the planner's build-mode review: Reviewed or ContractViolation.
type BuildFinalResult interface {
	buildFinalResult()
}

// Reviewed is a reviewed file set with its summary.
type Reviewed struct {
	Summary string
	Files   []File
}

// ContractViolation is a review response without a files array.
type ContractViolation struct {
	Raw string
}

func (Reviewed) buildFinalResult()          {}
func (ContractViolation) buildFinalResult() {}

// FilesPayload is the executor's build-mode response.
type FilesPayload struct {
	Files      []File   `json:"files"`
	FilesBuilt []string `json:"files_built"`
	Summary    string   `json:"summary,omitempty"`
}

// DecodePlan interprets a plan response.
//
// Accepted shapes are {"tasks": [...]}, {"tasks": {"tasks": [...]}} and a
// bare array. String entries are trimmed and blank ones dropped; other
// entries are kept as their JSON serialization.
func DecodePlan(raw string) PlanResult {
	v, ok := Parse(raw)
	if !ok {
		return Unparsed{Raw: raw}
	}

	list, ok := taskList(v)
	if !ok {
		return Unparsed{Raw: raw}
	}

	tasks := make(Tasks, 0, len(list))
	for _, item := range list {
		switch t := item.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				tasks = append(tasks, s)
			}
		case nil:
		default:
			b, err := json.Marshal(t)
			if err == nil {
				tasks = append(tasks, string(b))
			}
		}
	}
	if len(tasks) == 0 {
		return Unparsed{Raw: raw}
	}
	return tasks
}

func taskList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case map[string]any:
		switch inner := t["tasks"].(type) {
		case []any:
			return inner, true
		case map[string]any:
			if list, ok := inner["tasks"].([]any); ok {
				return list, true
			}
		}
	}
	return nil, false
}

// DecodeFiles interprets an executor build-mode response. ok is false unless
// the response is an object with an array-typed "files".
//
// Entries without a non-empty string path and a string content are dropped.
// FilesBuilt defaults to the kept paths when the model omitted it.
func DecodeFiles(raw string) (FilesPayload, bool) {
	v, ok := Parse(raw)
	if !ok {
		return FilesPayload{}, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return FilesPayload{}, false
	}
	list, ok := obj["files"].([]any)
	if !ok {
		return FilesPayload{}, false
	}

	out := FilesPayload{Files: make([]File, 0, len(list))}
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		path, _ := entry["path"].(string)
		content, isString := entry["content"].(string)
		if strings.TrimSpace(path) == "" || !isString {
			continue
		}
		out.Files = append(out.Files, File{Path: strings.TrimSpace(path), Content: content})
	}

	if built, ok := obj["files_built"].([]any); ok {
		out.FilesBuilt = make([]string, 0, len(built))
		for _, b := range built {
			if s, ok := b.(string); ok && s != "" {
				out.FilesBuilt = append(out.FilesBuilt, s)
			}
		}
	} else {
		out.FilesBuilt = Paths(out.Files)
	}

	if s, ok := obj["final_summary"].(string); ok {
		out.Summary = s
	} else if s, ok := obj["summary"].(string); ok {
		out.Summary = s
	}
	return out, true
}

// DecodeBuildFinal interprets the planner's build-mode review.
func DecodeBuildFinal(raw string) BuildFinalResult {
	p, ok := DecodeFiles(raw)
	if !ok {
		return ContractViolation{Raw: raw}
	}
	return Reviewed{Summary: p.Summary, Files: p.Files}
}

// Paths returns the paths of files in order.
func Paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
