// Package streamers maps channel ids to display names
package streamers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"vthell-api/pkg/models"
)

// Dataset file names inside the dataset directory
const (
	YouTubeDataset  = "_youtube_mapping.json"
	BilibiliDataset = "_bilibili_mapping.json"
)

type streamer struct {
	Name string `json:"name"`
}

// Directory is a read-only channel id to display name table. It is never
// modified after Load, so it is safe to share between requests.
type Directory struct {
	names map[models.Platform]map[string]string
}

// Load reads both dataset files from dir. A missing file yields an empty
// table for that platform.
func Load(dir string) (*Directory, error) {
	d := &Directory{names: make(map[models.Platform]map[string]string, 2)}

	for platform, name := range map[models.Platform]string{
		models.PlatformYouTube:  YouTubeDataset,
		models.PlatformBilibili: BilibiliDataset,
	} {
		table, err := loadDataset(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		d.names[platform] = table
		slog.Debug("Loaded streamer dataset", "platform", platform, "streamers", len(table))
	}
	return d, nil
}

// New builds a directory from in-memory tables
func New(names map[models.Platform]map[string]string) *Directory {
	d := &Directory{names: make(map[models.Platform]map[string]string, len(names))}
	for platform, table := range names {
		copied := make(map[string]string, len(table))
		for id, name := range table {
			copied[id] = name
		}
		d.names[platform] = copied
	}
	return d
}

func loadDataset(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("Streamer dataset not found", "path", path)
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read streamer dataset: %w", err)
	}

	var raw map[string]streamer
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode streamer dataset %s: %w", path, err)
	}

	table := make(map[string]string, len(raw))
	for id, s := range raw {
		if s.Name != "" {
			table[id] = s.Name
		}
	}
	return table, nil
}

// Name returns the display name of a channel, or the id itself when unknown
func (d *Directory) Name(platform models.Platform, id string) string {
	if d == nil {
		return id
	}
	if name, ok := d.names[platform][id]; ok {
		return name
	}
	return id
}

// Len returns the number of known streamers on a platform
func (d *Directory) Len(platform models.Platform) int {
	if d == nil {
		return 0
	}
	return len(d.names[platform])
}
