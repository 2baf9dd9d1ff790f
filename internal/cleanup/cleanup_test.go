package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"vthell-api/internal/storage"

	"github.com/stretchr/testify/require"
)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("partial"), 0o644))
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, stamp, stamp))
}

func TestSweepTempFiles(t *testing.T) {
	root := t.TempDir()
	jobsDir := filepath.Join(root, "jobs")
	require.NoError(t, os.MkdirAll(jobsDir, 0o755))

	staleJob := filepath.Join(jobsDir, storage.TempPrefix+"111")
	staleIndex := filepath.Join(root, storage.TempPrefix+"222")
	fresh := filepath.Join(jobsDir, storage.TempPrefix+"333")
	record := filepath.Join(jobsDir, "abc123.json")

	writeAged(t, staleJob, 2*time.Hour)
	writeAged(t, staleIndex, 3*time.Hour)
	writeAged(t, fresh, time.Minute)
	writeAged(t, record, 48*time.Hour)

	stats, err := NewService(time.Hour, root, jobsDir).SweepTempFiles()
	require.NoError(t, err)
	require.Equal(t, 2, stats.Removed)
	require.Equal(t, int64(14), stats.BytesFreed)
	require.Zero(t, stats.Failed)

	require.NoFileExists(t, staleJob)
	require.NoFileExists(t, staleIndex)
	require.FileExists(t, fresh)
	require.FileExists(t, record)
}

func TestSweepTempFiles_MissingDirectory(t *testing.T) {
	stats, err := NewService(0, filepath.Join(t.TempDir(), "missing")).SweepTempFiles()
	require.NoError(t, err)
	require.Zero(t, stats.Removed)
}

func TestSweepTempFiles_SkipsDirectories(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, storage.TempPrefix+"dir")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	_, err := NewService(time.Nanosecond, root).SweepTempFiles()
	require.NoError(t, err)
	require.DirExists(t, nested)
}

func TestIsPathSafe(t *testing.T) {
	s := NewService(time.Hour, "/data/vthell", "/data/vthell/jobs/")

	require.True(t, s.isPathSafe("/data/vthell/jobs/x"))
	require.True(t, s.isPathSafe("/data/vthell/x"))
	require.False(t, s.isPathSafe("/data/other/x"))
	require.False(t, s.isPathSafe("/data/vthell/jobs/sub/x"))
}
