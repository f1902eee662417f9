package domain

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"buildtrace.dev/pkg/buildtrace/internal/adapter"
	"buildtrace.dev/pkg/buildtrace/internal/controller"
	m "buildtrace.dev/pkg/buildtrace/internal/model"
	"buildtrace.dev/pkg/buildtrace/pkg"
)

// WatchArgs holds the inputs for a live watch session.
type WatchArgs struct {
	Root    m.Path
	Exclude []string

	// Journal, when set, is a file every observed change is appended to.
	Journal m.Path
}

// Watcher reports file changes live instead of bracketing a single build
// with two scans. Classification matches the differ: a new file is created,
// a rewritten file is modified, deletions are not reported.
type Watcher interface {
	Watch(ctx context.Context, args WatchArgs) error
}

type watcher struct {
	fs adapter.ScanFS
	ui controller.UI
}

// NewWatcher constructs a Watcher.
func NewWatcher(fsAdapter adapter.ScanFS, ui controller.UI) Watcher {
	return &watcher{fs: fsAdapter, ui: ui}
}

// Watch blocks until ctx is cancelled, reporting created and modified files
// under root as they happen.
func (w *watcher) Watch(ctx context.Context, args WatchArgs) error {
	root, err := w.fs.Abs(args.Root)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args.Root, err)
	}

	var matcher *ignore.GitIgnore
	if len(args.Exclude) > 0 {
		matcher = ignore.CompileIgnoreLines(args.Exclude...)
	}

	var journal pkg.RecordLog[m.ChangeRecord]
	if args.Journal != "" {
		journal, err = pkg.NewRecordLog[m.ChangeRecord](string(args.Journal))
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}

		defer func() {
			slog.Info("journal closed", "path", journal.Path(), "records", journal.Len())

			_ = journal.Close()
		}()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer fw.Close()

	if err := watchTree(fw, root); err != nil {
		return err
	}

	slog.Info("watching for changes", "root", root)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case event, ok := <-fw.Events:
				if !ok {
					return nil
				}

				w.handleEvent(groupCtx, fw, root, matcher, journal, event)
			case err, ok := <-fw.Errors:
				if !ok {
					return nil
				}

				slog.Warn("watch error", "error", err)
			}
		}
	})

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func (w *watcher) handleEvent(
	ctx context.Context,
	fw *fsnotify.Watcher,
	root m.Path,
	matcher *ignore.GitIgnore,
	journal pkg.RecordLog[m.ChangeRecord],
	event fsnotify.Event,
) {
	var kind m.ChangeKind

	switch {
	case event.Has(fsnotify.Create):
		kind = m.ChangeCreated
	case event.Has(fsnotify.Write):
		kind = m.ChangeModified
	default:
		// Removes and renames are not reported, matching the differ.
		return
	}

	info, err := os.Lstat(event.Name)
	if err != nil {
		// Already gone again.
		return
	}

	if info.IsDir() {
		if kind == m.ChangeCreated {
			if err := fw.Add(event.Name); err != nil {
				slog.Warn("watch new directory", "path", event.Name, "error", err)
			}
		}

		return
	}

	if !info.Mode().IsRegular() {
		return
	}

	if matcher != nil {
		rel, relErr := filepath.Rel(string(root), event.Name)
		if relErr == nil && matcher.MatchesPath(filepath.ToSlash(rel)) {
			return
		}
	}

	change := m.ChangeRecord{
		Path:  m.Path(event.Name),
		MTime: info.ModTime().UnixNano(),
		Kind:  kind,
	}

	w.ui.DisplayLiveChange(ctx, change)

	if journal != nil {
		if err := journal.Append(change); err != nil {
			slog.Warn("append to journal", "path", event.Name, "error", err)
		}
	}
}

// watchTree registers every directory under root, since fsnotify watches are
// not recursive.
func watchTree(fw *fsnotify.Watcher, root m.Path) error {
	return filepath.WalkDir(string(root), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == string(root) {
				return fmt.Errorf("watch root %s: %w", root, err)
			}

			slog.Warn("skipping unreadable entry", "path", path, "error", err)

			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}

		return nil
	})
}
