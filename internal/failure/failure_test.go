package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageIsInnermostCause(t *testing.T) {
	err := Wrap(KindUpstream, "llm.complete", errors.New("fetch failed: connection refused"))
	assert.Equal(t, "fetch failed: connection refused", err.Error())

	wrapped := fmt.Errorf("senior plan: %w", err)
	fe, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindUpstream, fe.Kind)
	assert.Equal(t, "llm.complete", fe.Op)
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(KindConfig, "x", nil))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"unclassified", errors.New("plain"), ""},
		{"direct", Validation("run", "Missing: goal"), KindValidation},
		{"wrapped", fmt.Errorf("ctx: %w", New(KindTimeout, "llm", "timeout after 18000ms")), KindTimeout},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
			if tt.want != "" {
				assert.True(t, Is(tt.err, tt.want))
			}
		})
	}
}

func TestRawOf(t *testing.T) {
	inner := New(KindRepair, "junior.execute", "JSON repair failed").WithRaw("not json either")
	outer := fmt.Errorf("task 1: %w", inner)
	assert.Equal(t, "not json either", RawOf(outer))
	assert.Empty(t, RawOf(errors.New("plain")))

	nested := &Error{Kind: KindUpstream, Err: New(KindContract, "senior", "bad").WithRaw("prose")}
	assert.Equal(t, "prose", RawOf(nested))
}

func TestConfig_NamesSetting(t *testing.T) {
	err := Config("github.token", "GITHUB_TOKEN")
	assert.Equal(t, KindConfig, err.Kind)
	assert.Contains(t, err.Error(), "github.token")
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")

	assert.Equal(t, "missing required setting: github.repo", Config("github.repo", "").Error())
}
