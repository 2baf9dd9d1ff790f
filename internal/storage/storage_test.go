package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	table, err := db.Table("jobs")
	require.NoError(t, err)

	return map[string]Backend{
		"memory": NewMemory(),
		"fs":     NewFS(filepath.Join(t.TempDir(), "jobs"), ".json"),
		"sqlite": table,
	}
}

func TestBackends_GetPutDelete(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Get("abc")
			require.ErrorIs(t, err, ErrNotExist)

			require.NoError(t, b.Put("abc", []byte(`{"v":1}`)))
			data, err := b.Get("abc")
			require.NoError(t, err)
			require.Equal(t, `{"v":1}`, string(data))

			require.NoError(t, b.Put("abc", []byte(`{"v":2}`)))
			data, err = b.Get("abc")
			require.NoError(t, err)
			require.Equal(t, `{"v":2}`, string(data))

			require.NoError(t, b.Delete("abc"))
			_, err = b.Get("abc")
			require.ErrorIs(t, err, ErrNotExist)

			// Deleting again is not an error
			require.NoError(t, b.Delete("abc"))
		})
	}
}

func TestBackends_List(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			records, err := b.List()
			require.NoError(t, err)
			require.Empty(t, records)

			require.NoError(t, b.Put("b", []byte("2")))
			require.NoError(t, b.Put("a", []byte("1")))

			records, err = b.List()
			require.NoError(t, err)
			require.Equal(t, []Record{
				{Key: "a", Data: []byte("1")},
				{Key: "b", Data: []byte("2")},
			}, records)
		})
	}
}

func TestBackends_RejectInvalidKeys(t *testing.T) {
	keys := []string{"", ".", "..", "../escape", "a/b", `a\b`, ".hidden"}

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range keys {
				require.ErrorIs(t, b.Put(key, []byte("x")), ErrInvalidKey, key)
				_, err := b.Get(key)
				require.ErrorIs(t, err, ErrInvalidKey, key)
				require.ErrorIs(t, b.Delete(key), ErrInvalidKey, key)
			}
		})
	}
}

func TestFS_ListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	fs := NewFS(dir, ".json")

	require.NoError(t, fs.Put("job1", []byte("{}")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, TempPrefix+"123"), []byte("partial"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	records, err := fs.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "job1", records[0].Key)
}

func TestFS_PutLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs := NewFS(dir, ".json")

	require.NoError(t, fs.Put("job1", []byte(`{"id":"job1"}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "job1.json", entries[0].Name())
	require.Equal(t, filepath.Join(dir, "job1.json"), fs.Path("job1"))
}

func TestSQLite_InvalidTableName(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Table("jobs; DROP TABLE x")
	require.Error(t, err)
}

func TestSQLite_TablesAreIndependent(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	jobs, err := db.Table("jobs")
	require.NoError(t, err)
	index, err := db.Table("archive_index")
	require.NoError(t, err)

	require.NoError(t, jobs.Put("k", []byte("job")))
	_, err = index.Get("k")
	require.ErrorIs(t, err, ErrNotExist)
}
