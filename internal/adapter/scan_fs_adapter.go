// Package adapter contains filesystem, process and storage adapters for the
// buildtrace CLI.
package adapter

import (
	"io/fs"
	"os"
	"path/filepath"

	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

// ScanFS abstracts the filesystem operations the scanner relies on. It hides
// direct `os` access so the domain logic can be tested without a real tree
// when needed.
type ScanFS interface {
	// WalkDir traverses the tree rooted at root in lexical per-directory
	// order, visiting every entry.
	WalkDir(root m.Path, fn fs.WalkDirFunc) error

	// Stat returns metadata for a path, following no symlinks.
	Stat(path m.Path) (os.FileInfo, error)

	// Abs resolves path to an absolute, cleaned form.
	Abs(path m.Path) (m.Path, error)
}

// LocalScanFS is the os-backed ScanFS implementation.
type LocalScanFS struct{}

// NewLocalScanFS constructs a LocalScanFS ready to be wired into the scanner.
func NewLocalScanFS() *LocalScanFS {
	return &LocalScanFS{}
}

// WalkDir traverses the tree rooted at root.
func (a *LocalScanFS) WalkDir(root m.Path, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(string(root), fn)
}

// Stat returns metadata for path without following symlinks, so a symlink is
// reported as a symlink rather than as its target.
func (a *LocalScanFS) Stat(path m.Path) (os.FileInfo, error) {
	return os.Lstat(string(path))
}

// Abs resolves path to an absolute, cleaned form.
func (a *LocalScanFS) Abs(path m.Path) (m.Path, error) {
	abs, err := filepath.Abs(string(path))
	if err != nil {
		return "", err
	}

	return m.Path(abs), nil
}
