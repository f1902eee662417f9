package controller

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

func newBufferedUI() (*SimpleUI, *bytes.Buffer) {
	var buf bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	return NewSimpleUI(cmd), &buf
}

func TestSimpleUIDisplayChanges(t *testing.T) {
	ui, buf := newBufferedUI()

	changes := []m.ChangeRecord{
		{Path: "/proj/a.o", MTime: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).UnixNano(), Kind: m.ChangeModified},
		{Path: "/proj/c.o", MTime: time.Date(2026, 3, 1, 10, 0, 1, 0, time.UTC).UnixNano(), Kind: m.ChangeCreated},
	}
	require.NoError(t, ui.DisplayChanges(context.Background(), changes))

	out := buf.String()
	assert.Contains(t, out, "/proj/a.o")
	assert.Contains(t, out, "/proj/c.o")
	assert.Contains(t, out, "modified")
	assert.Contains(t, out, "created")
	assert.Contains(t, out, "1 created / 1 modified")

	// a.o before c.o, matching the diff order.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("a.o")), bytes.Index(buf.Bytes(), []byte("c.o")))
}

func TestSimpleUIDisplayChangesEmpty(t *testing.T) {
	ui, buf := newBufferedUI()

	require.NoError(t, ui.DisplayChanges(context.Background(), nil))
	assert.Contains(t, buf.String(), "No files were created or modified")
}

func TestSimpleUIDisplaySnapshot(t *testing.T) {
	ui, buf := newBufferedUI()

	snapshot := m.Snapshot{
		Root: "/proj",
		Files: []m.FileRecord{
			{Path: "/proj/a.txt", MTime: time.Now().UnixNano()},
			{Path: "/proj/b.txt", MTime: time.Now().UnixNano()},
		},
	}
	require.NoError(t, ui.DisplaySnapshot(context.Background(), snapshot))

	out := buf.String()
	assert.Contains(t, out, "/proj/a.txt")
	assert.Contains(t, out, "Total Files 2")
}

func TestSimpleUIDisplayReport(t *testing.T) {
	ui, buf := newBufferedUI()

	report := m.RunReport{
		ID:        "run-1",
		Root:      "/proj",
		Command:   []string{"make", "-j2"},
		StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		ExitCode:  1,
		Changes:   []m.ChangeRecord{{Path: "/proj/a.o", MTime: 1, Kind: m.ChangeCreated}},
	}
	require.NoError(t, ui.DisplayReport(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "make -j2")
	assert.Contains(t, out, "Exit code: 1")
	assert.Contains(t, out, "/proj/a.o")
}

func TestSimpleUIDisplayHistory(t *testing.T) {
	ui, buf := newBufferedUI()

	runs := []m.RunSummary{
		{ID: "r2", Command: "make all", ExitCode: 0, Created: 3, Modified: 1, StartedAt: time.Now()},
		{ID: "r1", Command: "make clean", ExitCode: 2, StartedAt: time.Now().Add(-time.Hour)},
	}
	require.NoError(t, ui.DisplayHistory(context.Background(), runs))

	out := buf.String()
	assert.Contains(t, out, "make all")
	assert.Contains(t, out, "make clean")
}

func TestSimpleUIDisplayHistoryEmpty(t *testing.T) {
	ui, buf := newBufferedUI()

	require.NoError(t, ui.DisplayHistory(context.Background(), nil))
	assert.Contains(t, buf.String(), "No recorded runs")
}

func TestSimpleUIBuildLifecycle(t *testing.T) {
	ui, buf := newBufferedUI()

	ui.BuildStarted(context.Background(), []string{"make", "-j8"})
	ui.BuildFinished(context.Background(), 0, 1500*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "Running build: make -j8")
	assert.Contains(t, out, "exit 0")
}

func TestSimpleUILiveChange(t *testing.T) {
	ui, buf := newBufferedUI()

	ui.DisplayLiveChange(context.Background(), m.ChangeRecord{
		Path:  "/proj/gen.h",
		MTime: time.Now().UnixNano(),
		Kind:  m.ChangeCreated,
	})

	out := buf.String()
	assert.Contains(t, out, "CREATED")
	assert.Contains(t, out, "/proj/gen.h")
}

func TestSimpleUIRespectsCancelledContext(t *testing.T) {
	ui, buf := newBufferedUI()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, ui.DisplayChanges(ctx, []m.ChangeRecord{{Path: "/proj/a.o"}}))
	assert.Empty(t, buf.String())
}
