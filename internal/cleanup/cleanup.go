// Package cleanup removes temporary files left behind by interrupted writes
package cleanup

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vthell-api/internal/storage"
)

// DefaultMaxAge is how old a temporary file must be before it is removed
const DefaultMaxAge = time.Hour

// Stats summarizes one sweep
type Stats struct {
	Removed    int
	BytesFreed int64
	Failed     int
}

// Service sweeps the directories used by the file storage backend
type Service struct {
	dirs   []string
	maxAge time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a cleanup service for dirs. Only files directly inside
// these directories are considered.
func NewService(maxAge time.Duration, dirs ...string) *Service {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	cleaned := make([]string, 0, len(dirs))
	for _, d := range dirs {
		cleaned = append(cleaned, filepath.Clean(d))
	}
	return &Service{
		dirs:   cleaned,
		maxAge: maxAge,
		now:    time.Now,
		logger: slog.Default(),
	}
}

// SweepTempFiles deletes stale storage temp files. Files younger than maxAge
// may belong to a write in progress and are kept.
func (s *Service) SweepTempFiles() (Stats, error) {
	var stats Stats
	cutoff := s.now().Add(-s.maxAge)

	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return stats, fmt.Errorf("failed to read directory %s: %w", dir, err)
		}

		for _, e := range entries {
			if e.IsDir() || !strings.HasPrefix(e.Name(), storage.TempPrefix) {
				continue
			}
			info, err := e.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}

			path := filepath.Join(dir, e.Name())
			if !s.isPathSafe(path) {
				s.logger.Warn("Skipping file outside safe path", "file", path)
				continue
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				s.logger.Warn("Failed to delete temporary file", "file", path, "error", err)
				stats.Failed++
				continue
			}
			stats.Removed++
			stats.BytesFreed += info.Size()
			s.logger.Info("Deleted stale temporary file", "file", path, "size", info.Size())
		}
	}

	if stats.Removed > 0 || stats.Failed > 0 {
		s.logger.Info("Temporary file cleanup completed",
			"removed", stats.Removed,
			"bytes_freed", stats.BytesFreed,
			"failed", stats.Failed)
	}
	return stats, nil
}

// isPathSafe reports whether path sits directly in one of the swept directories
func (s *Service) isPathSafe(path string) bool {
	parent := filepath.Dir(filepath.Clean(path))
	for _, dir := range s.dirs {
		if parent == dir {
			return true
		}
	}
	return false
}
