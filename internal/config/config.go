// Package config provides configuration loading for wizz.
//
// Configuration is assembled from defaults, an optional YAML file and
// environment variables (see LoadWithFile), then validated once at startup.
// The resulting Config is passed explicitly to every component; nothing reads
// the environment after Load returns.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/wizz/internal/failure"
)

// Task cap bounds. A run never holds more than MaxTaskCeiling tasks.
const (
	MinTaskCap      = 1
	MaxTaskCeiling  = 3
	DefaultTaskCap  = 2
	MaxPublishFiles = 25
)

// Config holds the complete wizz configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Senior        AgentConfig         `koanf:"senior"`
	Junior        AgentConfig         `koanf:"junior"`
	LLM           LLMConfig           `koanf:"llm"`
	Orchestrator  OrchestratorConfig  `koanf:"orchestrator"`
	GitHub        GitHubConfig        `koanf:"github"`
	Publish       PublishConfig       `koanf:"publish"`
	Events        EventsConfig        `koanf:"events"`
	Scrub         ScrubConfig         `koanf:"scrub"`
	Log           LogConfig           `koanf:"log"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"http_host"`
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// AgentConfig configures one completion-service persona (senior or junior).
type AgentConfig struct {
	APIKey      Secret  `koanf:"api_key"`
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
}

// LLMConfig holds settings shared by both personas.
type LLMConfig struct {
	// Provider selects the client implementation: "openrouter" or "langchain".
	Provider string        `koanf:"provider"`
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
	// RateLimit is the sustained request rate per second across all runs.
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`
}

// OrchestratorConfig bounds a single run.
type OrchestratorConfig struct {
	DefaultMaxTasks int           `koanf:"default_max_tasks"`
	MaxGoalChars    int           `koanf:"max_goal_chars"`
	MaxContextChars int           `koanf:"max_context_chars"`
	RunTimeout      time.Duration `koanf:"run_timeout"` // 0 disables the whole-run deadline
}

// GitHubConfig identifies the content store.
type GitHubConfig struct {
	Token      Secret `koanf:"token"`
	Owner      string `koanf:"owner"`
	Repo       string `koanf:"repo"`
	Branch     string `koanf:"branch"`
	APIURL     string `koanf:"api_url"`
	MaxRetries int    `koanf:"max_retries"`
}

// PublishConfig bounds the publish step.
type PublishConfig struct {
	MaxFiles     int    `koanf:"max_files"`
	CommitPrefix string `koanf:"commit_prefix"`
}

// EventsConfig configures the optional NATS progress publisher.
type EventsConfig struct {
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// ScrubConfig controls secret scrubbing of outbound prompts.
type ScrubConfig struct {
	Enabled bool `koanf:"enabled"`
	// Engine is "regexp" (built-in rules) or "gitleaks" (full Gitleaks rule pack).
	Engine        string `koanf:"engine"`
	AllowlistPath string `koanf:"allowlist_path"` // Gitleaks-style TOML
}

// LogConfig holds the operator-facing logging knobs.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	Endpoint        string `koanf:"endpoint"`
	Protocol        string `koanf:"protocol"`
	Insecure        bool   `koanf:"insecure"`
}

// Defaults returns a configuration populated with default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            9191,
			ShutdownTimeout: 10 * time.Second,
		},
		Senior: AgentConfig{
			Model:       "openai/gpt-4o",
			Temperature: 0.4,
		},
		Junior: AgentConfig{
			Model:       "openai/gpt-4o-mini",
			Temperature: 0.4,
		},
		LLM: LLMConfig{
			Provider:  "openrouter",
			BaseURL:   "https://openrouter.ai/api/v1",
			Timeout:   18 * time.Second,
			RateLimit: 2,
			Burst:     4,
		},
		Orchestrator: OrchestratorConfig{
			DefaultMaxTasks: DefaultTaskCap,
			MaxGoalChars:    4000,
			MaxContextChars: 12000,
		},
		GitHub: GitHubConfig{
			Branch:     "main",
			MaxRetries: 2,
		},
		Publish: PublishConfig{
			MaxFiles:     MaxPublishFiles,
			CommitPrefix: "Wizz publish",
		},
		Events: EventsConfig{
			SubjectPrefix: "wizz.runs",
		},
		Scrub: ScrubConfig{Enabled: true, Engine: "regexp"},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Observability: ObservabilityConfig{
			ServiceName: "wizz",
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			Insecure:    true,
		},
	}
}

// Validate validates the configuration.
//
// Credential errors are classified as failure.KindConfig and name the
// missing setting together with the environment variables that provide it.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if !c.Senior.APIKey.IsSet() {
		return failure.Config("senior.api_key", "SENIOR_API_KEY or OPENROUTER_KEY_WS")
	}
	if !c.Junior.APIKey.IsSet() {
		return failure.Config("junior.api_key", "JUNIOR_API_KEY or OPENROUTER_KEY_WJ")
	}
	if c.Senior.Model == "" || c.Junior.Model == "" {
		return errors.New("senior.model and junior.model must not be empty")
	}

	switch c.LLM.Provider {
	case "openrouter", "langchain":
	default:
		return fmt.Errorf("llm.provider must be 'openrouter' or 'langchain', got %q", c.LLM.Provider)
	}
	if c.LLM.BaseURL == "" {
		return errors.New("llm.base_url must not be empty")
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("llm.timeout must be positive")
	}
	if c.LLM.RateLimit <= 0 || c.LLM.Burst < 1 {
		return fmt.Errorf("llm.rate_limit must be > 0 and llm.burst >= 1, got %v/%d", c.LLM.RateLimit, c.LLM.Burst)
	}

	o := c.Orchestrator
	if o.DefaultMaxTasks < MinTaskCap || o.DefaultMaxTasks > MaxTaskCeiling {
		return fmt.Errorf("orchestrator.default_max_tasks must be %d-%d, got %d", MinTaskCap, MaxTaskCeiling, o.DefaultMaxTasks)
	}
	if o.MaxGoalChars <= 0 || o.MaxContextChars <= 0 {
		return errors.New("orchestrator character caps must be positive")
	}
	if o.RunTimeout < 0 {
		return errors.New("orchestrator.run_timeout cannot be negative")
	}

	if c.Publish.MaxFiles < 1 || c.Publish.MaxFiles > MaxPublishFiles {
		return fmt.Errorf("publish.max_files must be 1-%d, got %d", MaxPublishFiles, c.Publish.MaxFiles)
	}
	if c.GitHub.MaxRetries < 0 {
		return errors.New("github.max_retries cannot be negative")
	}

	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	return nil
}

// Validate reports the first missing content-store setting.
// Publishing is optional, so this is checked when the publisher is built
// rather than in Config.Validate.
func (g GitHubConfig) Validate() error {
	if !g.Token.IsSet() {
		return failure.Config("github.token", "GITHUB_TOKEN")
	}
	if g.Owner == "" {
		return failure.Config("github.owner", "GITHUB_OWNER")
	}
	if g.Repo == "" {
		return failure.Config("github.repo", "GITHUB_REPO")
	}
	if g.Branch == "" {
		return failure.Config("github.branch", "GITHUB_BRANCH")
	}
	return nil
}

// Target returns the owner/repo@branch identifier of the content store.
func (g GitHubConfig) Target() string {
	return fmt.Sprintf("%s/%s@%s", g.Owner, g.Repo, g.Branch)
}
