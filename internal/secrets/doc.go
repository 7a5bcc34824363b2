// Package secrets detects and redacts credentials in text before it leaves
// the process.
//
// Every prompt sent to the completion service passes through a Scrubber, so a
// goal or context that happens to contain an API key or token is never
// forwarded upstream. Two engines are available: a compact regexp rule set
// (default) and the full Gitleaks rule pack. Both honor an optional TOML
// allowlist.
package secrets
