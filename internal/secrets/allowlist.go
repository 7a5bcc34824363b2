package secrets

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// LoadAllowlist reads allowlist regexes from a Gitleaks-style TOML file:
//
//	[allowlist]
//	regexes = ['''sk-test-[a-z]+''']
//
// A missing file yields no patterns.
func LoadAllowlist(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	var doc struct {
		Allowlist struct {
			Regexes []string `toml:"regexes"`
		} `toml:"allowlist"`
	}

	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}

	for _, pattern := range doc.Allowlist.Regexes {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("%w: invalid pattern %q in %s: %v", ErrInvalidRegex, pattern, path, err)
		}
	}

	return doc.Allowlist.Regexes, nil
}
