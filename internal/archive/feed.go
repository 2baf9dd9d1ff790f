package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"vthell-api/pkg/models"
)

// ErrNoFeed is returned when no remote listing source is configured
var ErrNoFeed = errors.New("no archive feed configured")

// DefaultCategories are the top-level archive folders included in the index
var DefaultCategories = []string{
	"Stream Archive",
	"Member-Only Stream Archive",
	"Archival",
	"Cover Songs",
	"Stream Chat Archive",
}

// Lister lists one category of the remote archive. Paths in the returned
// entries are relative to the category folder.
type Lister interface {
	List(ctx context.Context, category string) ([]models.Entry, error)
}

// Collect lists every category, prefixes each path with its category and
// returns the combined entries sorted by path
func Collect(ctx context.Context, lister Lister, categories []string) ([]models.Entry, error) {
	if lister == nil {
		return nil, ErrNoFeed
	}

	var all []models.Entry
	for _, category := range categories {
		slog.Info("Fetching archive category", "category", category)

		entries, err := lister.List(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("failed to list category %q: %w", category, err)
		}
		for _, e := range entries {
			e.Path = category + "/" + e.Path
			all = append(all, e)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Path < all[j].Path
	})
	return all, nil
}
