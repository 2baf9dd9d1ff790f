package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TempPrefix names the temporary files Put writes before renaming them
const TempPrefix = ".vthell-tmp-"

// FS stores each record as <Dir>/<key><Ext>
type FS struct {
	Dir string
	Ext string
}

// NewFS creates a filesystem backend rooted at dir. Files are named key+ext.
func NewFS(dir, ext string) *FS {
	return &FS{
		Dir: filepath.Clean(dir),
		Ext: ext,
	}
}

// Path returns the file a key is stored in
func (fs *FS) Path(key string) string {
	return filepath.Join(fs.Dir, key+fs.Ext)
}

// Get reads the record file
func (fs *FS) Get(key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fs.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to read %s: %w", fs.Path(key), err)
	}
	return data, nil
}

// Put writes data to a temporary file in the same directory and renames it
// over the record file
func (fs *FS) Put(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := os.MkdirAll(fs.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fs.Dir, err)
	}

	path := fs.Path(key)
	tmp, err := os.CreateTemp(fs.Dir, TempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file for %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to chmod temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}

// Delete removes the record file if it exists
func (fs *FS) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := os.Remove(fs.Path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", fs.Path(key), err)
	}
	return nil
}

// List reads every record file in the directory. A missing directory is an
// empty store.
func (fs *FS) List() ([]Record, error) {
	entries, err := os.ReadDir(fs.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", fs.Dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fs.Ext) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([]Record, 0, len(names))
	for _, name := range names {
		key := strings.TrimSuffix(name, fs.Ext)
		data, err := fs.Get(key)
		if err != nil {
			// Removed between ReadDir and Get
			if errors.Is(err, ErrNotExist) {
				continue
			}
			return nil, err
		}
		records = append(records, Record{Key: key, Data: data})
	}
	return records, nil
}
