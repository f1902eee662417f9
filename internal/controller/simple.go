package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

// mtimeDisplayFormat keeps sub-second precision visible; the canonical mtime
// stays a raw nanosecond count in reports and CSV exports.
const mtimeDisplayFormat = "2006-01-02 15:04:05.000"

// SimpleUI implements UI using cobra Command's output writer.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// BuildStarted announces the build command.
func (s *SimpleUI) BuildStarted(ctx context.Context, command []string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Running build: %s\n", strings.Join(command, " "))
}

// BuildFinished reports the build outcome.
func (s *SimpleUI) BuildFinished(ctx context.Context, exitCode int, duration time.Duration) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Build finished in %s (exit %d)\n", duration.Round(time.Millisecond), exitCode)
}

// DisplayLiveChange prints one watch-mode change as a single line.
func (s *SimpleUI) DisplayLiveChange(ctx context.Context, change m.ChangeRecord) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%-8s  %s  %s\n",
		strings.ToUpper(string(change.Kind)),
		formatMTime(change.MTime),
		change.Path,
	)
}

// DisplaySnapshot prints the scanned files as a table.
func (s *SimpleUI) DisplaySnapshot(ctx context.Context, snapshot m.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderSnapshotTable(snapshot))

	return nil
}

// DisplayChanges prints the change set as a table.
func (s *SimpleUI) DisplayChanges(ctx context.Context, changes []m.ChangeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(changes) == 0 {
		s.printf("No files were created or modified.\n")
		return nil
	}

	s.printf("\n%s", renderChangesTable(changes))

	return nil
}

// DisplayReport prints a previously saved run report.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Run %s\n", report.ID)
	s.printf("Root: %s\n", report.Root)
	s.printf("Command: %s\n", strings.Join(report.Command, " "))
	s.printf("Started: %s\n", report.StartedAt.Format(mtimeDisplayFormat))
	s.printf("Exit code: %d\n", report.ExitCode)

	return s.DisplayChanges(ctx, report.Changes)
}

// DisplayHistory prints past runs as a table, most recent first.
func (s *SimpleUI) DisplayHistory(ctx context.Context, runs []m.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(runs) == 0 {
		s.printf("No recorded runs.\n")
		return nil
	}

	s.printf("\n%s", renderHistoryTable(runs))

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func renderSnapshotTable(snapshot m.Snapshot) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Path", "Last Modified"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, record := range snapshot.Files {
		table.Append([]string{string(record.Path), formatMTime(record.MTime)})
	}

	table.SetFooter([]string{fmt.Sprintf("Total Files %d", snapshot.Len()), ""})
	table.Render()

	return buf.String()
}

func renderChangesTable(changes []m.ChangeRecord) string {
	var buf bytes.Buffer

	created, modified := 0, 0

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Path", "Last Modified", "Change"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	for _, change := range changes {
		table.Append([]string{string(change.Path), formatMTime(change.MTime), string(change.Kind)})

		if change.Kind == m.ChangeCreated {
			created++
		} else {
			modified++
		}
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(changes)),
		"",
		fmt.Sprintf("%d created / %d modified", created, modified),
	})
	table.Render()

	return buf.String()
}

func renderHistoryTable(runs []m.RunSummary) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Started", "Command", "Exit", "Created", "Modified"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	for _, run := range runs {
		table.Append([]string{
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Command,
			fmt.Sprintf("%d", run.ExitCode),
			fmt.Sprintf("%d", run.Created),
			fmt.Sprintf("%d", run.Modified),
		})
	}

	table.Render()

	return buf.String()
}

func formatMTime(mtime int64) string {
	return time.Unix(0, mtime).Format(mtimeDisplayFormat)
}
