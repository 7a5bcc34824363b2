package config

import "encoding/json"

const redacted = "[REDACTED]"

// Secret is a credential loaded from the environment or the config file
// (API keys, the GitHub token). Every formatting and serialization path
// prints a redaction marker; only Value returns the credential.
type Secret string

// Value returns the credential. Call it only where the credential leaves
// the process (an Authorization header, an SDK option).
func (s Secret) Value() string { return string(s) }

// IsSet reports whether a credential was provided.
func (s Secret) IsSet() bool { return s != "" }

func (s Secret) mask() string {
	if s == "" {
		return ""
	}
	return redacted
}

// String implements fmt.Stringer.
func (s Secret) String() string { return s.mask() }

// GoString implements fmt.GoStringer for %#v.
func (s Secret) GoString() string { return "Secret(" + redacted + ")" }

// MarshalText implements encoding.TextMarshaler.
func (s Secret) MarshalText() ([]byte, error) { return []byte(s.mask()), nil }

// MarshalJSON implements json.Marshaler.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(s.mask()) }

// UnmarshalText stores the raw credential. koanf decodes through this.
func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}
