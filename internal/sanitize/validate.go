// Package sanitize provides shared input validation for goals, context text and repository paths.
package sanitize

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validation errors for repository paths.
var (
	// ErrEmptyPath indicates an empty path was provided.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrPathTraversal indicates a path contains a parent-directory segment.
	ErrPathTraversal = errors.New("path contains directory traversal")

	// ErrAbsolutePath indicates an absolute path was provided where relative was expected.
	ErrAbsolutePath = errors.New("absolute path not allowed")

	// ErrInvalidPath indicates a path with control characters or invalid UTF-8.
	ErrInvalidPath = errors.New("invalid path")
)

// maxPathLen bounds a repository path. GitHub rejects longer paths anyway.
const maxPathLen = 1024

// RepoPath validates a path relative to the repository root and returns it
// with surrounding whitespace removed.
//
// A path is rejected when it is empty, absolute (leading slash or a drive
// letter), contains a ".." segment under either separator, contains a
// percent-encoded dot segment, or contains control characters.
func RepoPath(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return "", ErrEmptyPath
	}
	if len(p) > maxPathLen {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidPath, maxPathLen)
	}
	if !utf8.ValidString(p) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidPath)
	}
	for _, r := range p {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("%w: contains control character", ErrInvalidPath)
		}
	}

	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) || hasDriveLetter(p) {
		return "", ErrAbsolutePath
	}

	// Encoded dots are still traversal once the store decodes them.
	if strings.Contains(strings.ToLower(p), "%2e") {
		return "", fmt.Errorf("%w: encoded dot segment", ErrPathTraversal)
	}

	for _, seg := range strings.FieldsFunc(p, isSeparator) {
		if seg == ".." {
			return "", fmt.Errorf("%w: contains '..'", ErrPathTraversal)
		}
	}

	return p, nil
}

// Segments splits a validated path into its non-empty, non-"." segments.
func Segments(path string) []string {
	parts := strings.FieldsFunc(path, isSeparator)
	out := parts[:0]
	for _, s := range parts {
		if s != "." {
			out = append(out, s)
		}
	}
	return out
}

// Clean returns the canonical "/"-joined form of a validated path.
func Clean(path string) string {
	return strings.Join(Segments(path), "/")
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
