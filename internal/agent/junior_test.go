package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/wizz/internal/contract"
	"github.com/fyrsmithlabs/wizz/internal/failure"
	"github.com/fyrsmithlabs/wizz/internal/llm/llmtest"
)

func TestJunior_ExecuteText(t *testing.T) {
	c := llmtest.New("openai/gpt-4o-mini").Reply("X is a thing.")
	j := NewJunior(c, nil, nil)

	res, err := j.Execute(context.Background(), "summarize X", "notes", false)
	require.NoError(t, err)
	assert.Equal(t, JuniorResult{Task: "summarize X", Result: "X is a thing."}, res)

	msgs := c.Messages(0)
	assert.Contains(t, msgs[0].Content, "Wizz Junior")
	assert.Equal(t, "TASK:\nsummarize X\n\nCONTEXT:\nnotes", msgs[1].Content)
}

func TestJunior_ExecuteTextNeverRepairs(t *testing.T) {
	c := llmtest.New("junior").Reply("```json\n{not json\n```")
	j := NewJunior(c, nil, nil)

	res, err := j.Execute(context.Background(), "t", "", false)
	require.NoError(t, err)
	assert.Equal(t, "```json\n{not json\n```", res.Result)
	c.AssertNumberOfCalls(t, "Complete", 1)
}

func TestJunior_ExecuteBuildFenced(t *testing.T) {
	c := llmtest.New("junior").Reply("Sure, here it is:\n```json\n{\"files\":[{\"path\":\"index.html\",\"content\":\"<h1/>\"}]}\n```")
	j := NewJunior(c, nil, nil)
	var repairs int
	j.OnRepair(func(context.Context, bool) { repairs++ })

	res, err := j.Execute(context.Background(), "t", "", true)
	require.NoError(t, err)
	assert.Equal(t, []contract.File{{Path: "index.html", Content: "<h1/>"}}, res.Files)
	assert.Equal(t, []string{"index.html"}, res.FilesBuilt)
	assert.False(t, res.Repaired)
	assert.Zero(t, repairs)
	assert.Contains(t, c.Messages(0)[0].Content, "files_built")
	c.AssertNumberOfCalls(t, "Complete", 1)
}

func TestJunior_ExecuteBuildRepair(t *testing.T) {
	c := llmtest.New("junior").
		Reply("I made index.html with a hero section.").
		Reply(`{"files":[{"path":"index.html","content":"<section/>"}],"files_built":["index.html"]}`)
	j := NewJunior(c, nil, nil)
	var outcomes []bool
	j.OnRepair(func(_ context.Context, ok bool) { outcomes = append(outcomes, ok) })

	res, err := j.Execute(context.Background(), "t", "", true)
	require.NoError(t, err)
	assert.True(t, res.Repaired)
	assert.Equal(t, `{"files":[{"path":"index.html","content":"<section/>"}],"files_built":["index.html"]}`, res.Raw)
	assert.Equal(t, []bool{true}, outcomes)
}

func TestJunior_ExecuteBuildRepairFails(t *testing.T) {
	c := llmtest.New("junior").Reply("prose").Reply("more prose")
	j := NewJunior(c, nil, nil)
	var outcomes []bool
	j.OnRepair(func(_ context.Context, ok bool) { outcomes = append(outcomes, ok) })

	_, err := j.Execute(context.Background(), "t", "", true)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindRepair))
	assert.Equal(t, "more prose", failure.RawOf(err))
	assert.Equal(t, []bool{false}, outcomes)
	c.AssertNumberOfCalls(t, "Complete", 2)
}
