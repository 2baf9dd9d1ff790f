// Package app wires configuration to the storage, resolver and archive
// components shared by the server and the operator CLI
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"vthell-api/internal/archive"
	"vthell-api/internal/config"
	"vthell-api/internal/jobs"
	"vthell-api/internal/storage"
	"vthell-api/internal/youtube"
)

// Job and index tables used by the SQLite backend
const (
	JobsTable  = "jobs"
	IndexTable = "archive_index"
)

// App holds the components built from a configuration
type App struct {
	Jobs      *jobs.Service
	Index     *archive.IndexStore
	Rebuilder *archive.Rebuilder // nil when ARCHIVE_SOURCE is none

	closers []func() error
}

// New opens the configured storage backend and builds every component
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	jobsBackend, indexBackend, err := a.openBackends(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.YouTubeAPIKey == "" {
		slog.Warn("YOUTUBE_API_KEY is not set, new jobs cannot be resolved")
	}
	resolver := youtube.New(cfg.YouTubeAPIKey)
	a.Jobs = jobs.NewService(jobs.NewStore(jobsBackend), resolver, cfg.ResolveTimeout)
	a.Index = archive.NewIndexStore(indexBackend)

	lister, err := NewLister(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if lister != nil {
		a.Rebuilder = archive.NewRebuilder(lister, cfg.ArchiveCategories, a.Index, cfg.LockPath())
	}

	slog.Info("Components initialized",
		"store_backend", cfg.StoreBackend,
		"archive_source", cfg.ArchiveSource,
		"categories", len(cfg.ArchiveCategories))
	return a, nil
}

func (a *App) openBackends(cfg *config.Config) (storage.Backend, storage.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := storage.OpenSQLite(cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		jobsTable, err := db.Table(JobsTable)
		if err != nil {
			_ = a.Close()
			return nil, nil, err
		}
		indexTable, err := db.Table(IndexTable)
		if err != nil {
			_ = a.Close()
			return nil, nil, err
		}
		return jobsTable, indexTable, nil
	default:
		return storage.NewFS(cfg.JobsDir(), ".json"), storage.NewFS(cfg.VTHellPath, ".json"), nil
	}
}

// NewLister returns the configured archive listing source, or nil for none
func NewLister(ctx context.Context, cfg *config.Config) (archive.Lister, error) {
	switch cfg.ArchiveSource {
	case config.SourceRclone:
		return archive.NewRcloneLister(cfg.RcloneBinary, cfg.RcloneRemote), nil
	case config.SourceS3:
		lister, err := archive.NewS3Lister(ctx, archive.S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 lister: %w", err)
		}
		return lister, nil
	default:
		return nil, nil
	}
}

// Close releases the storage backend
func (a *App) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
