package secrets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/wizz/internal/config"
)

// Scrubber detects and redacts secrets from content.
type Scrubber interface {
	// Scrub redacts secrets from the content.
	Scrub(content string) *Result

	// IsEnabled returns whether scrubbing is enabled.
	IsEnabled() bool
}

// New creates the Scrubber selected by cfg.Engine.
// If cfg is nil, DefaultConfig() is used.
func New(cfg *Config) (Scrubber, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return NoopScrubber{}, nil
	}
	if cfg.Engine == EngineGitleaks {
		return newGitleaksScrubber(cfg)
	}
	return &regexpScrubber{config: cfg}, nil
}

// FromAppConfig builds the scrubber described by the scrub config section.
func FromAppConfig(sc config.ScrubConfig) (Scrubber, error) {
	cfg := DefaultConfig()
	cfg.Enabled = sc.Enabled
	if sc.Engine != "" {
		cfg.Engine = sc.Engine
	}
	allow, err := LoadAllowlist(sc.AllowlistPath)
	if err != nil {
		return nil, fmt.Errorf("scrub allowlist: %w", err)
	}
	cfg.AllowList = allow
	return New(cfg)
}

// regexpScrubber applies the compiled rule set. It is immutable after New
// and safe for concurrent use.
type regexpScrubber struct {
	config *Config
}

// span is a byte range to redact.
type span struct {
	start, end int
}

func (s *regexpScrubber) Scrub(content string) *Result {
	result := &Result{Scrubbed: content}
	var spans []span

	for _, rule := range s.config.compiledRules {
		if !rule.applies(content) {
			continue
		}
		for _, m := range rule.pattern.FindAllStringIndex(content, -1) {
			if s.config.allowed(content[m[0]:m[1]]) {
				continue
			}
			result.Findings = append(result.Findings, Finding{
				RuleID:   rule.ID,
				Severity: rule.Severity,
				Line:     strings.Count(content[:m[0]], "\n") + 1,
			})
			spans = append(spans, span{m[0], m[1]})
		}
	}

	if len(spans) > 0 {
		result.Scrubbed = redactSpans(content, spans, s.config.RedactionString)
	}
	return result
}

func (s *regexpScrubber) IsEnabled() bool {
	return true
}

func (r *compiledRule) applies(content string) bool {
	if len(r.keywords) == 0 {
		return true
	}
	for _, kw := range r.keywords {
		if kw.MatchString(content) {
			return true
		}
	}
	return false
}

// redactSpans replaces the union of spans with marker. Overlapping or
// touching spans collapse into one marker.
func redactSpans(content string, spans []span, marker string) string {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	b.Grow(len(content))
	pos := 0
	for i := 0; i < len(spans); {
		start, end := spans[i].start, spans[i].end
		for i++; i < len(spans) && spans[i].start <= end; i++ {
			if spans[i].end > end {
				end = spans[i].end
			}
		}
		b.WriteString(content[pos:start])
		b.WriteString(marker)
		pos = end
	}
	b.WriteString(content[pos:])
	return b.String()
}

// NoopScrubber returns content unchanged.
type NoopScrubber struct{}

// Scrub returns content unchanged.
func (NoopScrubber) Scrub(content string) *Result {
	return &Result{Scrubbed: content}
}

// IsEnabled returns false.
func (NoopScrubber) IsEnabled() bool {
	return false
}

var (
	_ Scrubber = (*regexpScrubber)(nil)
	_ Scrubber = NoopScrubber{}
)
