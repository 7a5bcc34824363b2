package contract

import (
	"encoding/json"
	"regexp"
	"strings"
)

const fence = "```"

// fencedBlock matches the first fenced block in surrounding prose.
var fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \\t]*\\r?\\n(.*?)```")

// Parse decodes the JSON value encoded in raw.
//
// Surrounding whitespace is ignored. When raw is itself a fenced block, or
// prose containing one, the fence body is decoded first; the unfenced text
// is tried last. ok is false when nothing decodes.
func Parse(raw string) (any, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, false
	}
	if body, found := StripFence(s); found {
		if v, ok := decode(body); ok {
			return v, true
		}
		// An outer fence may span several blocks; fall back to the first one.
		if m := fencedBlock.FindStringSubmatch(s); m != nil {
			if v, ok := decode(strings.TrimSpace(m[1])); ok {
				return v, true
			}
		}
	}
	return decode(s)
}

// StripFence returns the body of the outermost or first code fence in s.
// found is false when s contains no fence.
func StripFence(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, fence) && strings.HasSuffix(s, fence) && len(s) >= 2*len(fence) {
		body := strings.TrimSuffix(s[len(fence):], fence)
		// Drop the info string ("json", "JSON", ...) on the opening line.
		if i := strings.IndexByte(body, '\n'); i >= 0 {
			if info := strings.TrimSpace(body[:i]); !strings.ContainsAny(info, "{[\"") {
				body = body[i+1:]
			}
		}
		return strings.TrimSpace(body), true
	}
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

func decode(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}
