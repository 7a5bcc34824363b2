package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/wizz/internal/failure"
)

// setupHome points HOME at a temp dir and returns the wizz config dir inside it.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "wizz")
	require.NoError(t, os.MkdirAll(dir, 0700))
	return dir
}

func setKeys(t *testing.T) {
	t.Helper()
	t.Setenv("SENIOR_API_KEY", "sk-senior")
	t.Setenv("JUNIOR_API_KEY", "sk-junior")
}

func writeConfig(t *testing.T, dir, body string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestLoadWithFile_Defaults(t *testing.T) {
	setupHome(t)
	setKeys(t)

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "openai/gpt-4o", cfg.Senior.Model)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.Junior.Model)
	assert.Equal(t, 18*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.Orchestrator.DefaultMaxTasks)
	assert.Equal(t, 4000, cfg.Orchestrator.MaxGoalChars)
	assert.Equal(t, 25, cfg.Publish.MaxFiles)
	assert.Equal(t, "main", cfg.GitHub.Branch)
	assert.True(t, cfg.Scrub.Enabled)
	assert.Equal(t, "sk-senior", cfg.Senior.APIKey.Value())
}

func TestLoadWithFile_YAMLThenEnv(t *testing.T) {
	dir := setupHome(t)
	setKeys(t)
	path := writeConfig(t, dir, `
server:
  http_port: 8088
llm:
  timeout: 5s
orchestrator:
  default_max_tasks: 3
github:
  owner: acme
  repo: site
`, 0600)

	t.Setenv("GITHUB_REPO", "site-from-env")
	t.Setenv("ORCHESTRATOR_RUN_TIMEOUT", "2m")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.Orchestrator.DefaultMaxTasks)
	assert.Equal(t, 2*time.Minute, cfg.Orchestrator.RunTimeout)
	assert.Equal(t, "acme", cfg.GitHub.Owner)
	assert.Equal(t, "site-from-env", cfg.GitHub.Repo)
}

func TestLoadWithFile_LegacyEnv(t *testing.T) {
	setupHome(t)
	t.Setenv("SENIOR_API_KEY", "")
	t.Setenv("JUNIOR_API_KEY", "")
	t.Setenv("OPENROUTER_KEY_WS", "legacy-senior")
	t.Setenv("OPENROUTER_KEY_WJ", "legacy-junior")
	t.Setenv("MODEL_WJ", "meta/llama")

	cfg, err := LoadWithFile("")
	require.NoError(t, err)
	assert.Equal(t, "legacy-senior", cfg.Senior.APIKey.Value())
	assert.Equal(t, "legacy-junior", cfg.Junior.APIKey.Value())
	assert.Equal(t, "meta/llama", cfg.Junior.Model)

	t.Setenv("JUNIOR_API_KEY", "modern-junior")
	cfg, err = LoadWithFile("")
	require.NoError(t, err)
	assert.Equal(t, "modern-junior", cfg.Junior.APIKey.Value())
}

func TestLoadWithFile_MissingKeyNamesSetting(t *testing.T) {
	setupHome(t)
	t.Setenv("SENIOR_API_KEY", "sk-senior")
	t.Setenv("JUNIOR_API_KEY", "")
	t.Setenv("OPENROUTER_KEY_WJ", "")

	_, err := LoadWithFile("")
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindConfig))
	assert.Contains(t, err.Error(), "junior.api_key")
}

func TestLoadWithFile_InsecurePermissions(t *testing.T) {
	dir := setupHome(t)
	setKeys(t)
	path := writeConfig(t, dir, "server:\n  http_port: 8088\n", 0644)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoadWithFile_TooLarge(t *testing.T) {
	dir := setupHome(t)
	setKeys(t)
	body := make([]byte, maxConfigFileSize+1)
	for i := range body {
		body[i] = '#'
	}
	path := writeConfig(t, dir, string(body), 0600)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestValidateConfigPath(t *testing.T) {
	dir := setupHome(t)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"user config dir", filepath.Join(dir, "config.yaml"), false},
		{"nested in user dir", filepath.Join(dir, "profiles", "dev.yaml"), false},
		{"system dir", "/etc/wizz/config.yaml", false},
		{"outside allowed dirs", "/tmp/config.yaml", true},
		{"sibling prefix", "/etc/wizz-evil/config.yaml", true},
		{"traversal out of user dir", filepath.Join(dir, "..", "..", "config.yaml"), true},
		{"dir itself", dir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfigPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateConfigPath_SymlinkEscape(t *testing.T) {
	dir := setupHome(t)
	outside := filepath.Join(t.TempDir(), "evil.yaml")
	require.NoError(t, os.WriteFile(outside, []byte("{}"), 0600))

	link := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.Symlink(outside, link))

	assert.Error(t, validateConfigPath(link))
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"SERVER_HTTP_PORT":         "server.http_port",
		"ORCHESTRATOR_RUN_TIMEOUT": "orchestrator.run_timeout",
		"GITHUB_TOKEN":             "github.token",
		"PATH":                     "",
		"HOME":                     "",
		"UNKNOWN_SECTION_KEY":      "",
		"LLM_":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, EnsureConfigDir())
	info, err := os.Stat(filepath.Join(home, ".config", "wizz"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
