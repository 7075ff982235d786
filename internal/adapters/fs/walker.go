// Package fs provides file system adapters for fingerprinting, hashing and verifying build outputs.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"slices"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every regular file below root in lexical order, skipping
// VCS metadata and the directories listed in ignores. Ignored paths must be
// given in the same form as root (both absolute or both relative).
// A walk error is yielded once with an empty path and ends the walk.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				yield("", err)
				return filepath.SkipAll
			}
			if d.IsDir() {
				if path != root && w.shouldSkipDir(path, d.Name(), ignores) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Walker) shouldSkipDir(path, name string, ignores []string) bool {
	if name == ".git" || name == ".jj" {
		return true
	}
	return slices.Contains(ignores, filepath.Clean(path))
}
