package contract

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/wizz/internal/failure"
	"github.com/fyrsmithlabs/wizz/internal/llm"
)

// ErrRepairFailed is the cause of a failure.KindRepair error.
var ErrRepairFailed = errors.New("JSON repair failed")

// Validator decodes raw model output, reporting whether it has the required structure.
type Validator[T any] func(raw string) (T, bool)

// RepairTemplate describes the repair request.
type RepairTemplate struct {
	// Instruction is the strict system instruction of the repair call.
	Instruction string
}

// Messages builds the repair request for a malformed response.
func (r RepairTemplate) Messages(malformed string) []llm.Message {
	return []llm.Message{llm.System(r.Instruction), llm.User(malformed)}
}

// FilesRepair is the repair template for executor build-mode output.
var FilesRepair = RepairTemplate{
	Instruction: "You repair malformed JSON. Return ONLY valid JSON. No prose, no markdown, no code fences. " +
		`Required shape: {"files":[{"path":"index.html","content":"..."}],"files_built":["index.html"]}. ` +
		"Keep every file and its full content from the input.",
}

// Outcome is the result of a structured call.
type Outcome[T any] struct {
	Value T
	// Raw is the first response.
	Raw string
	// RepairedRaw is the repair response, empty when no repair was issued.
	RepairedRaw string
	Repaired    bool
}

// CallWithRepair issues messages and validates the response. When validation
// fails it issues exactly one repair call built from tmpl with the malformed
// response as user content, and validates that response instead.
//
// Upstream errors from either call are returned unchanged. A repair response
// that still fails validation yields a failure.KindRepair error whose Raw
// holds the repaired text.
func CallWithRepair[T any](ctx context.Context, client llm.Client, messages []llm.Message, validate Validator[T], tmpl RepairTemplate) (Outcome[T], error) {
	var out Outcome[T]

	raw, err := client.Complete(ctx, messages)
	if err != nil {
		return out, err
	}
	out.Raw = raw
	if v, ok := validate(raw); ok {
		out.Value = v
		return out, nil
	}

	out.Repaired = true
	repaired, err := client.Complete(ctx, tmpl.Messages(raw))
	if err != nil {
		return out, err
	}
	out.RepairedRaw = repaired
	v, ok := validate(repaired)
	if !ok {
		return out, &failure.Error{Kind: failure.KindRepair, Op: "contract.repair", Err: ErrRepairFailed, Raw: repaired}
	}
	out.Value = v
	return out, nil
}
