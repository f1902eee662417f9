// Package model defines the data structures for build profiling.
package model

import (
	"fmt"
	"sort"
	"time"
)

// Path represents a file system path.
type Path string

// FileRecord captures the state of one regular file at scan time.
// Immutable once captured.
type FileRecord struct {
	Path  Path
	MTime int64 // last modification time, Unix nanoseconds
}

// Snapshot is the state of a directory tree at one instant: one FileRecord
// per regular file, sorted ascending by path. Symlinks, directories and
// special files are never part of a snapshot.
type Snapshot struct {
	Root  Path
	Taken time.Time
	Files []FileRecord
}

// Len returns the number of files in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Files)
}

// Lookup returns the recorded mtime for path, searching by the snapshot's
// sorted order.
func (s Snapshot) Lookup(path Path) (int64, bool) {
	i := sort.Search(len(s.Files), func(i int) bool {
		return s.Files[i].Path >= path
	})

	if i < len(s.Files) && s.Files[i].Path == path {
		return s.Files[i].MTime, true
	}

	return 0, false
}

// Validate checks the snapshot invariants: paths strictly ascending, which
// also guarantees uniqueness.
func (s Snapshot) Validate() error {
	for i := 1; i < len(s.Files); i++ {
		prev, cur := s.Files[i-1].Path, s.Files[i].Path
		if cur == prev {
			return fmt.Errorf("duplicate path %q", cur)
		}

		if cur < prev {
			return fmt.Errorf("paths out of order: %q after %q", cur, prev)
		}
	}

	return nil
}
