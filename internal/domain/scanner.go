// Package domain implements the snapshot, diff and profiling logic of
// buildtrace.
package domain

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"buildtrace.dev/pkg/buildtrace/internal/adapter"
	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

// ScanConfig tunes a Scanner.
type ScanConfig struct {
	// Exclude holds gitignore-style patterns; matching files are left out of
	// the snapshot.
	Exclude []string

	// Parallel is the number of stat workers. Values below 2 mean the stat
	// stage runs sequentially. The resulting snapshot is identical either
	// way.
	Parallel int
}

// Scanner produces directory snapshots.
type Scanner interface {
	// Scan walks the tree under root and returns a snapshot of every regular
	// file, sorted by path. An unreadable root is fatal; individual files
	// that vanish or become unreadable mid-walk are skipped with a logged
	// warning. A cancelled context aborts the scan without a partial result.
	Scan(ctx context.Context, root m.Path) (m.Snapshot, error)
}

type scanner struct {
	fs       adapter.ScanFS
	matcher  *ignore.GitIgnore
	parallel int
}

// NewScanner constructs a Scanner backed by the provided filesystem adapter.
func NewScanner(fsAdapter adapter.ScanFS, cfg ScanConfig) Scanner {
	var matcher *ignore.GitIgnore
	if len(cfg.Exclude) > 0 {
		matcher = ignore.CompileIgnoreLines(cfg.Exclude...)
	}

	return &scanner{
		fs:       fsAdapter,
		matcher:  matcher,
		parallel: cfg.Parallel,
	}
}

// Scan enumerates candidate paths first, then stats them, so a file deleted
// between the two steps is handled the same way in sequential and parallel
// mode.
func (s *scanner) Scan(ctx context.Context, root m.Path) (m.Snapshot, error) {
	taken := time.Now()

	paths, err := s.enumerate(ctx, root)
	if err != nil {
		return m.Snapshot{}, err
	}

	var records []m.FileRecord
	if s.parallel > 1 {
		records, err = s.statParallel(ctx, paths)
	} else {
		records, err = s.statSequential(ctx, paths)
	}

	if err != nil {
		return m.Snapshot{}, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})

	snapshot := m.Snapshot{Root: root, Taken: taken, Files: records}
	if err := snapshot.Validate(); err != nil {
		return m.Snapshot{}, fmt.Errorf("scan of %s produced invalid snapshot: %w", root, err)
	}

	return snapshot, nil
}

// enumerate walks the tree and collects the paths of regular files. Symlinks
// are skipped, never followed.
func (s *scanner) enumerate(ctx context.Context, root m.Path) ([]m.Path, error) {
	var paths []m.Path

	err := s.fs.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == string(root) {
				return fmt.Errorf("scan root %s: %w", root, err)
			}

			// Entry vanished or became unreadable mid-walk.
			slog.Warn("skipping unreadable entry", "path", path, "error", err)

			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if s.excluded(root, path) {
			return nil
		}

		paths = append(paths, m.Path(path))

		return nil
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}

func (s *scanner) excluded(root m.Path, path string) bool {
	if s.matcher == nil {
		return false
	}

	rel, err := filepath.Rel(string(root), path)
	if err != nil {
		return false
	}

	return s.matcher.MatchesPath(filepath.ToSlash(rel))
}

func (s *scanner) statSequential(ctx context.Context, paths []m.Path) ([]m.FileRecord, error) {
	records := make([]m.FileRecord, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, ok := s.statOne(path)
		if ok {
			records = append(records, record)
		}
	}

	return records, nil
}

func (s *scanner) statParallel(ctx context.Context, paths []m.Path) ([]m.FileRecord, error) {
	results := make([]*m.FileRecord, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.parallel)

	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			if record, ok := s.statOne(path); ok {
				results[i] = &record
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	records := make([]m.FileRecord, 0, len(paths))

	for _, record := range results {
		if record != nil {
			records = append(records, *record)
		}
	}

	return records, nil
}

// statOne reads one file's mtime. A vanished or unreadable file is reported
// as not ok, never as an error: the file simply does not make it into the
// snapshot. Reading metadata must not alter it, so only lstat is used.
func (s *scanner) statOne(path m.Path) (m.FileRecord, bool) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("skipping unreadable file", "path", path, "error", err)
		} else {
			slog.Warn("file vanished during scan", "path", path)
		}

		return m.FileRecord{}, false
	}

	if !info.Mode().IsRegular() {
		// Replaced by a non-regular file between enumeration and stat.
		return m.FileRecord{}, false
	}

	return m.FileRecord{Path: path, MTime: info.ModTime().UnixNano()}, true
}
