// Package controller provides output adapters for displaying profiling
// results.
package controller

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

// UI defines the interface for displaying scans, change sets and run
// history. Implementations can use different output methods (simple text,
// TUI, etc).
type UI interface {
	// BuildStarted is called right before the build command runs.
	BuildStarted(ctx context.Context, command []string)
	// BuildFinished is called once the build command returns.
	BuildFinished(ctx context.Context, exitCode int, duration time.Duration)
	// DisplayLiveChange reports a single change observed in watch mode.
	DisplayLiveChange(ctx context.Context, change m.ChangeRecord)
	DisplaySnapshot(ctx context.Context, snapshot m.Snapshot) error
	DisplayChanges(ctx context.Context, changes []m.ChangeRecord) error
	DisplayReport(ctx context.Context, report m.RunReport) error
	DisplayHistory(ctx context.Context, runs []m.RunSummary) error
}

// NewUI selects the UI implementation: the animated TUI on a terminal, plain
// output otherwise.
func NewUI(cmd *cobra.Command, isTTY bool) UI {
	if isTTY {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
