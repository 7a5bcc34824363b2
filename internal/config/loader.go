package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
	systemConfigDir   = "/etc/wizz"
)

// sections are the top-level keys an environment variable may address.
var sections = map[string]bool{
	"server":        true,
	"senior":        true,
	"junior":        true,
	"llm":           true,
	"orchestrator":  true,
	"github":        true,
	"publish":       true,
	"events":        true,
	"scrub":         true,
	"log":           true,
	"observability": true,
}

// legacyEnv maps the variable names of the first wizz deployment to config keys.
// The section-style names win when both are set.
var legacyEnv = map[string]string{
	"OPENROUTER_KEY_WS": "senior.api_key",
	"MODEL_WS":          "senior.model",
	"OPENROUTER_KEY_WJ": "junior.api_key",
	"MODEL_WJ":          "junior.model",
}

// LoadWithFile loads configuration from YAML file, then overrides with environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SENIOR_API_KEY, GITHUB_OWNER, LLM_TIMEOUT, etc.)
//  2. Legacy environment variables (OPENROUTER_KEY_WS, MODEL_WJ, ...)
//  3. YAML config file (~/.config/wizz/config.yaml)
//  4. Defaults()
//
// The configPath parameter specifies the YAML file to load. If empty, uses default path.
//
// # Security Considerations
//
// The file MUST have 0600 or 0400 permissions, MUST live under ~/.config/wizz/
// or /etc/wizz/, and MUST NOT exceed 1MB. A missing file is not an error.
//
// # Environment Variable Mapping
//
// The first underscore separates the section from the field name; variables
// whose prefix is not a known section are ignored:
//
//	SERVER_HTTP_PORT      -> server.http_port
//	ORCHESTRATOR_RUN_TIMEOUT -> orchestrator.run_timeout
//	GITHUB_MAX_RETRIES    -> github.max_retries
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "wizz", "config.yaml")
	}

	if err := validateConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}
	if _, err := os.Stat(configPath); err == nil {
		// Open once and validate the descriptor to avoid a TOCTOU race.
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if err := validateConfigFileProperties(info); err != nil {
			return nil, fmt.Errorf("config file validation failed: %w", err)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", nonEmpty(legacyKey)), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy environment variables: %w", err)
	}
	if err := k.Load(env.ProviderWithValue("", ".", nonEmpty(envKey)), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Unmarshal over the defaults so absent keys keep their default value.
	cfg := Defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// envKey maps SECTION_FIELD_NAME to section.field_name. An empty result tells
// the provider to skip the variable.
func envKey(s string) string {
	parts := strings.SplitN(strings.ToLower(s), "_", 2)
	if len(parts) != 2 || parts[1] == "" || !sections[parts[0]] {
		return ""
	}
	return parts[0] + "." + parts[1]
}

func legacyKey(s string) string {
	return legacyEnv[s]
}

// nonEmpty treats a variable set to the empty string as unset.
func nonEmpty(key func(string) string) func(string, string) (string, interface{}) {
	return func(k, v string) (string, interface{}) {
		if v == "" {
			return "", nil
		}
		return key(k), v
	}
}

// EnsureConfigDir creates ~/.config/wizz with 0700 permissions if it doesn't exist.
func EnsureConfigDir() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".config", "wizz")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	return nil
}

// validateConfigPath checks if path is in allowed directories.
// This validation runs even if the file doesn't exist yet.
func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Follow symlinks so a link cannot escape the allowed directories.
	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		// Paths that don't exist yet are validated as written.
		resolvedPath = absPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	allowedDirs := []string{
		filepath.Join(home, ".config", "wizz"),
		systemConfigDir,
	}

	for _, dir := range allowedDirs {
		if within(resolvedPath, dir) {
			return nil
		}
		// The directory itself may be a symlink (e.g. /etc on some systems).
		if resolvedDir, err := filepath.EvalSymlinks(dir); err == nil && within(resolvedPath, resolvedDir) {
			return nil
		}
	}

	return fmt.Errorf("config file must be in ~/.config/wizz/ or %s/", systemConfigDir)
}

func within(path, dir string) bool {
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

// validateConfigFileProperties checks file permissions and size.
// Takes FileInfo from an already-opened file descriptor to avoid TOCTOU race.
func validateConfigFileProperties(info os.FileInfo) error {
	// Windows has a different permission model.
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}
