package adapter

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

func newTestHistoryStore(t *testing.T) *SQLiteHistoryStore {
	t.Helper()

	store := NewHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func historyReport(id string, started time.Time) m.RunReport {
	return m.RunReport{
		ID:         id,
		Root:       "/proj",
		Command:    []string{"make", "all"},
		StartedAt:  started,
		FinishedAt: started.Add(30 * time.Second),
		ExitCode:   0,
		Changes: []m.ChangeRecord{
			{Path: "/proj/a.o", MTime: 1, Kind: m.ChangeCreated},
			{Path: "/proj/b.o", MTime: 2, Kind: m.ChangeModified},
			{Path: "/proj/c.o", MTime: 3, Kind: m.ChangeModified},
		},
	}
}

func TestHistoryStoreRoundTrip(t *testing.T) {
	store := newTestHistoryStore(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 9, 0, 0, 500000000, time.UTC)
	require.NoError(t, store.RecordRun(ctx, historyReport("run-1", started)))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, m.Path("/proj"), run.Root)
	assert.Equal(t, "make all", run.Command)
	assert.Equal(t, 0, run.ExitCode)
	assert.Equal(t, 1, run.Created)
	assert.Equal(t, 2, run.Modified)
	assert.True(t, started.Equal(run.StartedAt), "sub-second precision preserved")
}

func TestHistoryStoreListOrderAndLimit(t *testing.T) {
	store := newTestHistoryStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		report := historyReport(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.RecordRun(ctx, report))
	}

	runs, err := store.ListRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// Most recent first.
	assert.Equal(t, "run-4", runs[0].ID)
	assert.Equal(t, "run-3", runs[1].ID)
	assert.Equal(t, "run-2", runs[2].ID)
}

func TestHistoryStoreDefaultLimit(t *testing.T) {
	store := newTestHistoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordRun(ctx, historyReport("run-1", time.Now())))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestHistoryStoreEmptyDatabase(t *testing.T) {
	store := newTestHistoryStore(t)

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestHistoryStoreCloseWithoutOpen(t *testing.T) {
	store := NewHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, store.Close())
}

func TestHistoryStoreDuplicateRunID(t *testing.T) {
	store := newTestHistoryStore(t)
	ctx := context.Background()

	report := historyReport("run-1", time.Now())
	require.NoError(t, store.RecordRun(ctx, report))
	require.Error(t, store.RecordRun(ctx, report))
}
