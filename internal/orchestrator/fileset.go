package orchestrator

import (
	"strings"

	"github.com/fyrsmithlabs/wizz/internal/contract"
)

// FileSet maps paths to content and remembers the order paths first appeared.
// It is not safe for concurrent use; a run owns its FileSet.
type FileSet struct {
	order []string
	files map[string]string
}

// NewFileSet returns an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{files: make(map[string]string)}
}

// Put sets path to content. An existing path keeps its position; a new one
// is appended. Blank paths are ignored.
func (s *FileSet) Put(path, content string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	if _, ok := s.files[path]; !ok {
		s.order = append(s.order, path)
	}
	s.files[path] = content
}

// Merge puts every file in order, so a later file wins over an earlier one
// with the same path.
func (s *FileSet) Merge(files []contract.File) {
	for _, f := range files {
		s.Put(f.Path, f.Content)
	}
}

// Len returns the number of distinct paths.
func (s *FileSet) Len() int {
	return len(s.order)
}

// Get returns the content of path.
func (s *FileSet) Get(path string) (string, bool) {
	c, ok := s.files[path]
	return c, ok
}

// Paths returns the paths in order.
func (s *FileSet) Paths() []string {
	return append([]string{}, s.order...)
}

// Files returns the entries in order.
func (s *FileSet) Files() []contract.File {
	out := make([]contract.File, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, contract.File{Path: p, Content: s.files[p]})
	}
	return out
}
