package store

import "errors"

// ErrNotFound is returned when the path does not exist on the branch.
var ErrNotFound = errors.New("not found")

// ErrNotAFile is returned when a read targets a directory, symlink or submodule.
var ErrNotAFile = errors.New("path is not a file")

// FileContent is a decoded file read from the branch.
type FileContent struct {
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	Size    int    `json:"size"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// TreeEntry is one blob of the branch tree.
type TreeEntry struct {
	Path string `json:"path"`
	Size int    `json:"size"`
	SHA  string `json:"sha"`
}

// CommitResult describes a written file.
type CommitResult struct {
	Path      string `json:"path"`
	SHA       string `json:"sha"`
	CommitSHA string `json:"commit_sha"`
	Created   bool   `json:"created"`
}
