package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"

	"vthell-api/pkg/models"
)

// ErrRebuildInProgress is returned when another rebuild holds the lock
var ErrRebuildInProgress = errors.New("archive index rebuild already in progress")

// Rebuilder lists the remote archive, builds the tree and replaces the index
type Rebuilder struct {
	lister     Lister
	categories []string
	builder    *Builder
	index      *IndexStore
	lock       *flock.Flock
	running    sync.Mutex
	now        func() time.Time
	logger     *slog.Logger
}

// NewRebuilder creates a rebuilder. lockPath names the file that serializes
// rebuilds across processes.
func NewRebuilder(lister Lister, categories []string, index *IndexStore, lockPath string) *Rebuilder {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	return &Rebuilder{
		lister:     lister,
		categories: categories,
		builder:    NewBuilder(),
		index:      index,
		lock:       flock.New(lockPath),
		now:        time.Now,
		logger:     slog.Default(),
	}
}

// Rebuild replaces the stored index with a freshly built one. On any error the
// previous snapshot is left in place.
func (r *Rebuilder) Rebuild(ctx context.Context) (*models.Snapshot, error) {
	if r.lister == nil {
		return nil, ErrNoFeed
	}

	// The file lock only excludes other processes; a Flock held by this
	// process reports success to every caller
	if !r.running.TryLock() {
		return nil, ErrRebuildInProgress
	}
	defer r.running.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.lock.Path()), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	ok, err := r.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire rebuild lock: %w", err)
	}
	if !ok {
		return nil, ErrRebuildInProgress
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("Failed to release rebuild lock", "path", r.lock.Path(), "error", err)
		}
	}()

	started := r.now()
	r.logger.Info("Rebuilding archive index", "categories", len(r.categories))

	entries, err := Collect(ctx, r.lister, r.categories)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Building archive tree", "entries", len(entries))
	tree, total, err := r.builder.Build(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to build archive tree: %w", err)
	}

	snapshot := &models.Snapshot{
		Tree:        tree,
		LastUpdated: r.now().UTC().Unix(),
		TotalSize:   total,
	}
	if err := r.index.Save(snapshot); err != nil {
		return nil, err
	}

	r.logger.Info("Archive index rebuilt",
		"entries", len(entries),
		"total_size", humanize.Bytes(uint64(total)),
		"duration", r.now().Sub(started).Round(time.Millisecond))
	return snapshot, nil
}
