package secrets

import (
	"fmt"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// gitleaksScrubber runs the Gitleaks default rule pack (800+ patterns).
// Allowlist patterns are applied to each detected secret.
type gitleaksScrubber struct {
	config *Config

	mu       sync.Mutex // Detector keeps per-scan state
	detector *detect.Detector
}

func newGitleaksScrubber(cfg *Config) (*gitleaksScrubber, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("loading gitleaks rules: %w", err)
	}
	return &gitleaksScrubber{config: cfg, detector: detector}, nil
}

func (g *gitleaksScrubber) Scrub(content string) *Result {
	g.mu.Lock()
	findings := g.detector.DetectString(content)
	g.mu.Unlock()

	result := &Result{Scrubbed: content}
	if len(findings) == 0 {
		return result
	}

	secrets := make([]string, 0, len(findings))
	for _, f := range findings {
		if f.Secret == "" || g.config.allowed(f.Secret) {
			continue
		}
		result.Findings = append(result.Findings, Finding{
			RuleID:   f.RuleID,
			Severity: "high",
			Line:     f.StartLine,
		})
		secrets = append(secrets, f.Secret)
	}

	var spans []span
	for _, secret := range secrets {
		for from := 0; ; {
			i := strings.Index(content[from:], secret)
			if i < 0 {
				break
			}
			start := from + i
			spans = append(spans, span{start, start + len(secret)})
			from = start + len(secret)
		}
	}
	if len(spans) > 0 {
		result.Scrubbed = redactSpans(content, spans, g.config.RedactionString)
	}
	return result
}

func (g *gitleaksScrubber) IsEnabled() bool {
	return true
}

var _ Scrubber = (*gitleaksScrubber)(nil)
