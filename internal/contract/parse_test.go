package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
		ok   bool
	}{
		{"plain object", `{"a":1}`, map[string]any{"a": float64(1)}, true},
		{"whitespace", "\n  [1, 2]\n", []any{float64(1), float64(2)}, true},
		{"json fence", "```json\n{\"a\":\"b\"}\n```", map[string]any{"a": "b"}, true},
		{"bare fence", "```\n{\"a\":\"b\"}\n```", map[string]any{"a": "b"}, true},
		{"inline fence", "```{\"a\":\"b\"}```", map[string]any{"a": "b"}, true},
		{"prose around fence", "Here you go:\n```json\n{\"a\":\"b\"}\n```\nEnjoy!", map[string]any{"a": "b"}, true},
		{"two blocks", "```json\n{\"a\":\"b\"}\n```\nand\n```js\nconsole.log(1)\n```", map[string]any{"a": "b"}, true},
		{"prose only", "Sure! I will build it.", nil, false},
		{"empty", "   ", nil, false},
		{"truncated", `{"files": [`, nil, false},
		{"prose then json without fence", `Result: {"a":1}`, nil, false},
		{"json string", `"just text"`, "just text", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.raw)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripFence(t *testing.T) {
	body, found := StripFence("```html\n<p>x</p>\n```")
	assert.True(t, found)
	assert.Equal(t, "<p>x</p>", body)

	_, found = StripFence("no fences here")
	assert.False(t, found)
}
