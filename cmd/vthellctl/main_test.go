package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"vthell-api/internal/storage"
	"vthell-api/pkg/models"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	os.Clearenv()
	dir := t.TempDir()
	t.Setenv("VTHELL_PATH", dir)
	return dir
}

func TestJobsCommand(t *testing.T) {
	dir := setupEnv(t)

	job := models.NewJob(&models.ResolvedStream{
		ID:         "abc123",
		Filename:   "[2023.05.01.abc123] Hello／World",
		StartTime:  1682935140,
		Streamer:   "UCaqua",
		StreamURL:  "https://www.youtube.com/watch?v=abc123",
		Type:       models.PlatformYouTube,
		MemberOnly: true,
	})
	job.IsDownloading = true
	data, err := job.MarshalIndent()
	require.NoError(t, err)
	require.NoError(t, storage.NewFS(filepath.Join(dir, "jobs"), ".json").Put(job.ID, data))

	out, _, err := runCLI(t, "jobs")
	require.NoError(t, err)
	require.Contains(t, out, "abc123")
	require.Contains(t, out, "recording")
	require.Contains(t, out, "2023-05-01 10:00 UTC")
	require.Contains(t, out, "Hello／World")

	out, _, err = runCLI(t, "jobs", "--json")
	require.NoError(t, err)
	require.Contains(t, out, `"isDownloading": true`)
}

func TestJobsCommand_Empty(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, "jobs")
	require.NoError(t, err)
	require.Equal(t, "No jobs\n", out)
}

func TestRecordsCommand_NotBuilt(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, "records")
	require.NoError(t, err)
	require.Contains(t, out, "has not been built")
}

func TestRebuildCommand_NoSource(t *testing.T) {
	setupEnv(t)

	_, _, err := runCLI(t, "rebuild")
	require.Error(t, err)
	require.Contains(t, err.Error(), "ARCHIVE_SOURCE")
}

func TestRebuildAndRecords(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available on windows")
	}
	dir := setupEnv(t)

	script := filepath.Join(t.TempDir(), "rclone")
	body := `#!/bin/sh
case "$3" in
  "gdrive:Stream Archive")
    echo '[{"Path":"a.txt","Name":"a.txt","Size":100,"MimeType":"text/plain","ModTime":"2023-05-01T10:00:00Z","IsDir":false,"ID":"X1"},
{"Path":"sub/b.txt","Name":"b.txt","Size":50,"MimeType":"text/plain","ModTime":"2023-05-01T10:00:00Z","IsDir":false,"ID":"X2"}]' ;;
  *) echo '[]' ;;
esac
`
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	t.Setenv("ARCHIVE_SOURCE", "rclone")
	t.Setenv("RCLONE_BINARY", script)
	t.Setenv("RCLONE_REMOTE", "gdrive:")
	t.Setenv("ARCHIVE_CATEGORIES", "Stream Archive,Archival")

	out, _, err := runCLI(t, "rebuild")
	require.NoError(t, err)
	require.Contains(t, out, "Archive index rebuilt")
	require.Contains(t, out, "150 B")

	_, err = os.Stat(filepath.Join(dir, "recorded_streams.json"))
	require.NoError(t, err)

	out, _, err = runCLI(t, "records")
	require.NoError(t, err)
	require.Contains(t, out, "Stream Archive")
	require.True(t, strings.Contains(out, "Total size:   150 B"), out)

	out, _, err = runCLI(t, "records", "--json")
	require.NoError(t, err)
	require.Contains(t, out, `"total_size": 150`)
}
