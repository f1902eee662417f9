package domain

import (
	"errors"
	"fmt"

	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

// ErrSnapshotInvalid marks a diff input that violates the snapshot
// invariants. It cannot occur when both snapshots come from Scanner.
var ErrSnapshotInvalid = errors.New("invalid snapshot")

// Diff compares two snapshots and reports every path the build created or
// modified, ascending by path. A path present only in before is ignored:
// the profiler reports what exists in the final tree, deletions are out of
// scope. Mtime comparison is exact, with no tolerance.
//
// Diff is a pure function: it performs no I/O and never fails on well-formed
// inputs.
func Diff(before, after m.Snapshot) ([]m.ChangeRecord, error) {
	if err := before.Validate(); err != nil {
		return nil, fmt.Errorf("%w (before): %v", ErrSnapshotInvalid, err)
	}

	if err := after.Validate(); err != nil {
		return nil, fmt.Errorf("%w (after): %v", ErrSnapshotInvalid, err)
	}

	var changes []m.ChangeRecord

	// After's files are already sorted, so the output order falls out of the
	// iteration.
	for _, record := range after.Files {
		previous, existed := before.Lookup(record.Path)

		switch {
		case !existed:
			changes = append(changes, m.ChangeRecord{
				Path:  record.Path,
				MTime: record.MTime,
				Kind:  m.ChangeCreated,
			})
		case previous != record.MTime:
			changes = append(changes, m.ChangeRecord{
				Path:  record.Path,
				MTime: record.MTime,
				Kind:  m.ChangeModified,
			})
		}
	}

	return changes, nil
}
