package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"buildtrace.dev/pkg/buildtrace/internal/adapter"
	"buildtrace.dev/pkg/buildtrace/internal/controller"
	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

// ProfileArgs holds the inputs for one profiling run.
type ProfileArgs struct {
	Root     m.Path
	Command  []string
	Exclude  []string
	Parallel int
	Reports  m.Path
	Timeout  time.Duration
	CSV      bool
	History  bool
}

// ListArgs holds the inputs for a standalone scan.
type ListArgs struct {
	Root     m.Path
	Exclude  []string
	Parallel int
}

// ViewArgs holds the inputs for viewing a saved report.
type ViewArgs struct {
	Reports m.Path
}

// HistoryArgs holds the inputs for listing past runs.
type HistoryArgs struct {
	Limit int
}

// Workflow drives the profiling state machine: scan, build, scan, diff,
// report.
type Workflow interface {
	Profile(ctx context.Context, args ProfileArgs) error
	List(ctx context.Context, args ListArgs) error
	View(ctx context.Context, args ViewArgs) error
	History(ctx context.Context, args HistoryArgs) error
}

type workflow struct {
	fs      adapter.ScanFS
	runner  adapter.BuildRunner
	reports adapter.ReportStore
	history adapter.HistoryStore
	ui      controller.UI
}

// NewWorkflow creates a Workflow with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.ScanFS,
	runner adapter.BuildRunner,
	reports adapter.ReportStore,
	history adapter.HistoryStore,
	ui controller.UI,
) Workflow {
	return &workflow{
		fs:      fsAdapter,
		runner:  runner,
		reports: reports,
		history: history,
		ui:      ui,
	}
}

// Profile snapshots the tree, runs the build, snapshots again and reports
// every file the build created or modified.
func (w *workflow) Profile(ctx context.Context, args ProfileArgs) error {
	root, err := w.resolveRoot(args.Root)
	if err != nil {
		return err
	}

	scanner := NewScanner(w.fs, ScanConfig{Exclude: args.Exclude, Parallel: args.Parallel})

	startedAt := time.Now()

	before, err := scanner.Scan(ctx, root)
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}

	slog.Debug("initial scan complete", "root", root, "files", before.Len())
	w.ui.BuildStarted(ctx, args.Command)

	result, err := w.runner.Run(ctx, root, args.Command, args.Timeout)
	if err != nil {
		// The build never ran to completion. Still scan the tree it may have
		// touched, but record the failure.
		slog.Warn("build command failed to run", "command", args.Command, "error", err)

		result.ExitCode = -1
	}

	w.ui.BuildFinished(ctx, result.ExitCode, result.Duration)

	if result.ExitCode != 0 {
		slog.Warn("build exited unsuccessfully",
			"exit_code", result.ExitCode,
			"output_tail", tail(result.Output, 2048),
		)
	}

	after, err := scanner.Scan(ctx, root)
	if err != nil {
		return fmt.Errorf("final scan: %w", err)
	}

	slog.Debug("final scan complete", "root", root, "files", after.Len())

	changes, err := Diff(before, after)
	if err != nil {
		return err
	}

	if err := w.ui.DisplayChanges(ctx, changes); err != nil {
		return err
	}

	report := m.RunReport{
		ID:         uuid.NewString(),
		Root:       root,
		Command:    args.Command,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		ExitCode:   result.ExitCode,
		Changes:    changes,
	}

	if err := w.reports.SaveReport(args.Reports, report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	if args.CSV {
		csvPath, err := w.reports.ExportCSV(args.Reports, report)
		if err != nil {
			return fmt.Errorf("export csv: %w", err)
		}

		slog.Info("csv export written", "path", csvPath)
	}

	if args.History {
		if err := w.history.RecordRun(ctx, report); err != nil {
			// History is bookkeeping; losing a row should not fail the run.
			slog.Warn("record run in history", "error", err)
		}
	}

	return nil
}

// List scans once and displays the snapshot.
func (w *workflow) List(ctx context.Context, args ListArgs) error {
	root, err := w.resolveRoot(args.Root)
	if err != nil {
		return err
	}

	scanner := NewScanner(w.fs, ScanConfig{Exclude: args.Exclude, Parallel: args.Parallel})

	snapshot, err := scanner.Scan(ctx, root)
	if err != nil {
		return err
	}

	return w.ui.DisplaySnapshot(ctx, snapshot)
}

// View displays the most recently saved report.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	report, err := w.reports.LoadLatest(args.Reports)
	if err != nil {
		return err
	}

	return w.ui.DisplayReport(ctx, report)
}

// History lists past runs from the history database.
func (w *workflow) History(ctx context.Context, args HistoryArgs) error {
	runs, err := w.history.ListRuns(ctx, args.Limit)
	if err != nil {
		return err
	}

	return w.ui.DisplayHistory(ctx, runs)
}

// resolveRoot turns the user-supplied path into a validated absolute
// directory path before any scan runs.
func (w *workflow) resolveRoot(root m.Path) (m.Path, error) {
	abs, err := w.fs.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}

	info, err := w.fs.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("target %s: %w", abs, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("target %s is not a directory", abs)
	}

	return abs, nil
}

func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[len(s)-max:]
}
