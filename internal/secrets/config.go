package secrets

import (
	"errors"
	"fmt"
	"regexp"
)

// Engine names.
const (
	EngineRegexp   = "regexp"
	EngineGitleaks = "gitleaks"
)

var (
	// ErrInvalidRegex indicates a regex pattern failed to compile.
	ErrInvalidRegex = errors.New("invalid regex pattern")

	// ErrInvalidTOML indicates an allowlist file could not be parsed.
	ErrInvalidTOML = errors.New("invalid TOML format")
)

// Config configures the scrubber.
type Config struct {
	// Enabled controls whether scrubbing is active.
	Enabled bool

	// Engine selects the detector: EngineRegexp (default) or EngineGitleaks.
	Engine string

	// Rules are the detection rules of the regexp engine.
	Rules []Rule

	// RedactionString replaces each detected secret.
	RedactionString string

	// AllowList contains patterns whose matches are never redacted.
	AllowList []string

	compiledRules     []*compiledRule
	compiledAllowList []*regexp.Regexp
}

// Rule defines a secret detection rule.
type Rule struct {
	ID          string
	Description string
	Pattern     string
	// Keywords, when set, must appear (case-insensitively) before the pattern is tried.
	Keywords []string
	Severity string
}

type compiledRule struct {
	Rule
	pattern  *regexp.Regexp
	keywords []*regexp.Regexp
}

// DefaultConfig returns the regexp engine with DefaultRules.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Engine:          EngineRegexp,
		RedactionString: "[REDACTED]",
		Rules:           DefaultRules(),
	}
}

// Validate validates and compiles the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Engine {
	case "":
		c.Engine = EngineRegexp
	case EngineRegexp, EngineGitleaks:
	default:
		return fmt.Errorf("unknown scrub engine %q (want %q or %q)", c.Engine, EngineRegexp, EngineGitleaks)
	}
	if c.RedactionString == "" {
		c.RedactionString = "[REDACTED]"
	}

	c.compiledRules = make([]*compiledRule, 0, len(c.Rules))
	for i, rule := range c.Rules {
		if rule.ID == "" {
			return fmt.Errorf("rule %d: ID is required", i)
		}
		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil || rule.Pattern == "" {
			return fmt.Errorf("rule %s: %w: %q", rule.ID, ErrInvalidRegex, rule.Pattern)
		}

		compiled := &compiledRule{Rule: rule, pattern: pattern}
		for _, kw := range rule.Keywords {
			compiled.keywords = append(compiled.keywords, regexp.MustCompile("(?i)"+regexp.QuoteMeta(kw)))
		}
		c.compiledRules = append(c.compiledRules, compiled)
	}

	c.compiledAllowList = make([]*regexp.Regexp, 0, len(c.AllowList))
	for i, pattern := range c.AllowList {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("allow_list %d: %w: %v", i, ErrInvalidRegex, err)
		}
		c.compiledAllowList = append(c.compiledAllowList, compiled)
	}

	return nil
}

func (c *Config) allowed(match string) bool {
	for _, re := range c.compiledAllowList {
		if re.MatchString(match) {
			return true
		}
	}
	return false
}
