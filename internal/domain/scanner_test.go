package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildtrace.dev/pkg/buildtrace/internal/adapter"
	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func scanPaths(snapshot m.Snapshot) []string {
	paths := make([]string, 0, snapshot.Len())
	for _, record := range snapshot.Files {
		paths = append(paths, string(record.Path))
	}

	return paths
}

func TestScan(t *testing.T) {
	t.Run("finds regular files sorted by path", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "b.txt"), "b")
		writeFile(t, filepath.Join(root, "a.txt"), "a")
		writeFile(t, filepath.Join(root, "sub", "c.txt"), "c")

		scanner := NewScanner(adapter.NewLocalScanFS(), ScanConfig{})
		snapshot, err := scanner.Scan(context.Background(), m.Path(root))
		require.NoError(t, err)

		assert.Equal(t, []string{
			filepath.Join(root, "a.txt"),
			filepath.Join(root, "b.txt"),
			filepath.Join(root, "sub", "c.txt"),
		}, scanPaths(snapshot))
		require.NoError(t, snapshot.Validate())
	})

	t.Run("directories are not part of the snapshot", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "nested"), 0o755))

		scanner := NewScanner(adapter.NewLocalScanFS(), ScanConfig{})
		snapshot, err := scanner.Scan(context.Background(), m.Path(root))
		require.NoError(t, err)
		assert.Zero(t, snapshot.Len())
	})

	t.Run("symlinks are skipped, not followed", func(t *testing.T) {
		root := t.TempDir()
		target := filepath.Join(root, "real.txt")
		writeFile(t, target, "content")
		require.NoError(t, os.Symlink(target, filepath.Join(root, "link.txt")))

		scanner := NewScanner(adapter.NewLocalScanFS(), ScanConfig{})
		snapshot, err := scanner.Scan(context.Background(), m.Path(root))
		require.NoError(t, err)

		assert.Equal(t, []string{target}, scanPaths(snapshot))
	})

	t.Run("captures mtime with nanosecond precision", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "a.txt")
		writeFile(t, path, "a")

		stamp := time.Date(2026, 2, 14, 8, 30, 0, 123456000, time.UTC)
		require.NoError(t, os.Chtimes(path, stamp, stamp))

		scanner := NewScanner(adapter.NewLocalScanFS(), ScanConfig{})
		snapshot, err := scanner.Scan(context.Background(), m.Path(root))
		require.NoError(t, err)

		mtime, ok := snapshot.Lookup(m.Path(path))
		require.True(t, ok)
		assert.Equal(t, stamp.UnixNano(), mtime)
	})

	t.Run("exclude patterns filter files", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "main.c"), "")
		writeFile(t, filepath.Join(root, "main.o"), "")
		writeFile(t, filepath.Join(root, "build", "out.bin"), "")

		scanner := NewScanner(adapter.NewLocalScanFS(), ScanConfig{
			Exclude: []string{"*.o", "build/"},
		})
		snapshot, err := scanner.Scan(context.Background(), m.Path(root))
		require.NoError(t, err)

		assert.Equal(t, []string{filepath.Join(root, "main.c")}, scanPaths(snapshot))
	})

	t.Run("nonexistent root returns error", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "no_such_dir")

		scanner := NewScanner(adapter.NewLocalScanFS(), ScanConfig{})
		_, err := scanner.Scan(context.Background(), m.Path(root))
		require.Error(t, err)
		assert.Contains(t, err.Error(), root)
	})

	t.Run("cancelled context aborts without partial snapshot", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), "a")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		scanner := NewScanner(adapter.NewLocalScanFS(), ScanConfig{})
		_, err := scanner.Scan(ctx, m.Path(root))
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("two scans of an unchanged tree diff to nothing", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), "a")
		writeFile(t, filepath.Join(root, "sub", "b.txt"), "b")

		scanner := NewScanner(adapter.NewLocalScanFS(), ScanConfig{})

		first, err := scanner.Scan(context.Background(), m.Path(root))
		require.NoError(t, err)

		second, err := scanner.Scan(context.Background(), m.Path(root))
		require.NoError(t, err)

		changes, err := Diff(first, second)
		require.NoError(t, err)
		assert.Empty(t, changes)
	})

	t.Run("parallel scan matches sequential scan", func(t *testing.T) {
		root := t.TempDir()
		for _, name := range []string{"z.txt", "a.txt", "m/1.txt", "m/2.txt", "deep/er/3.txt"} {
			writeFile(t, filepath.Join(root, name), name)
		}

		sequential := NewScanner(adapter.NewLocalScanFS(), ScanConfig{})
		parallel := NewScanner(adapter.NewLocalScanFS(), ScanConfig{Parallel: 4})

		want, err := sequential.Scan(context.Background(), m.Path(root))
		require.NoError(t, err)

		got, err := parallel.Scan(context.Background(), m.Path(root))
		require.NoError(t, err)

		assert.Equal(t, want.Files, got.Files)
	})
}

func TestScanBuildScenario(t *testing.T) {
	// The canonical profiling scenario: a.txt rewritten, c.txt created,
	// b.txt untouched between the two scans.
	root := t.TempDir()
	aPath := filepath.Join(root, "a.txt")
	writeFile(t, aPath, "a")
	writeFile(t, filepath.Join(root, "b.txt"), "b")

	scanner := NewScanner(adapter.NewLocalScanFS(), ScanConfig{})

	before, err := scanner.Scan(context.Background(), m.Path(root))
	require.NoError(t, err)

	writeFile(t, aPath, "rewritten")
	newStamp := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(aPath, newStamp, newStamp))
	writeFile(t, filepath.Join(root, "c.txt"), "c")

	after, err := scanner.Scan(context.Background(), m.Path(root))
	require.NoError(t, err)

	changes, err := Diff(before, after)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, m.Path(aPath), changes[0].Path)
	assert.Equal(t, m.ChangeModified, changes[0].Kind)
	assert.Equal(t, m.Path(filepath.Join(root, "c.txt")), changes[1].Path)
	assert.Equal(t, m.ChangeCreated, changes[1].Kind)
}
