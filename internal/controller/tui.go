package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

var (
	commandStyle  = lipgloss.NewStyle().Bold(true)
	elapsedStyle  = lipgloss.NewStyle().Faint(true)
	finishedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// TUI implements UI with an animated progress view while the build command
// runs. Tables are rendered the same way as SimpleUI once the run is over.
type TUI struct {
	simple *SimpleUI

	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI writing to the command's output.
func NewTUI(cmd *cobra.Command) *TUI {
	return &TUI{simple: NewSimpleUI(cmd)}
}

// BuildStarted launches the progress view in the background.
func (t *TUI) BuildStarted(ctx context.Context, command []string) {
	if err := ctx.Err(); err != nil {
		return
	}

	t.done = make(chan struct{})
	t.program = tea.NewProgram(
		newBuildModel(strings.Join(command, " ")),
		tea.WithOutput(t.simple.cmd.OutOrStdout()),
		tea.WithContext(ctx),
	)

	go func() {
		defer close(t.done)

		if _, err := t.program.Run(); err != nil {
			slog.Warn("build progress view failed", "error", err)
		}
	}()
}

// BuildFinished stops the progress view and waits for it to exit so later
// table output does not interleave with it.
func (t *TUI) BuildFinished(ctx context.Context, exitCode int, duration time.Duration) {
	if t.program == nil {
		t.simple.BuildFinished(ctx, exitCode, duration)
		return
	}

	t.program.Send(buildDoneMsg{exitCode: exitCode, duration: duration})
	<-t.done
	t.program = nil
}

// DisplayLiveChange reports a single change observed in watch mode.
func (t *TUI) DisplayLiveChange(ctx context.Context, change m.ChangeRecord) {
	t.simple.DisplayLiveChange(ctx, change)
}

// DisplaySnapshot prints the scanned files as a table.
func (t *TUI) DisplaySnapshot(ctx context.Context, snapshot m.Snapshot) error {
	return t.simple.DisplaySnapshot(ctx, snapshot)
}

// DisplayChanges prints the change set as a table.
func (t *TUI) DisplayChanges(ctx context.Context, changes []m.ChangeRecord) error {
	return t.simple.DisplayChanges(ctx, changes)
}

// DisplayReport prints a previously saved run report.
func (t *TUI) DisplayReport(ctx context.Context, report m.RunReport) error {
	return t.simple.DisplayReport(ctx, report)
}

// DisplayHistory prints past runs as a table.
func (t *TUI) DisplayHistory(ctx context.Context, runs []m.RunSummary) error {
	return t.simple.DisplayHistory(ctx, runs)
}

type buildDoneMsg struct {
	exitCode int
	duration time.Duration
}

type tickMsg time.Time

type buildModel struct {
	spin    spinner.Model
	command string
	started time.Time

	done     bool
	exitCode int
	duration time.Duration
}

func newBuildModel(command string) buildModel {
	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	return buildModel{
		spin:    spin,
		command: command,
		started: time.Now(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/4, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (b buildModel) Init() tea.Cmd {
	return tea.Batch(b.spin.Tick, tick())
}

func (b buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case buildDoneMsg:
		b.done = true
		b.exitCode = msg.exitCode
		b.duration = msg.duration

		return b, tea.Quit
	case tickMsg:
		return b, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spin, cmd = b.spin.Update(msg)

		return b, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return b, tea.Quit
		}
	}

	return b, nil
}

func (b buildModel) View() string {
	if b.done {
		style := finishedStyle
		if b.exitCode != 0 {
			style = failedStyle
		}

		return style.Render(
			fmt.Sprintf("Build finished in %s (exit %d)", b.duration.Round(time.Millisecond), b.exitCode),
		) + "\n"
	}

	elapsed := time.Since(b.started).Round(time.Second)

	return fmt.Sprintf("%sRunning build: %s %s\n",
		b.spin.View(),
		commandStyle.Render(b.command),
		elapsedStyle.Render(fmt.Sprintf("(%s)", elapsed)),
	)
}
