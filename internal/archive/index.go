package archive

import (
	"encoding/json"
	"errors"
	"fmt"

	"vthell-api/internal/storage"
	"vthell-api/pkg/models"
)

// IndexKey is the record key of the archive index
// (recorded_streams.json with the file backend)
const IndexKey = "recorded_streams"

// IndexStore persists the archive index snapshot as a single record
type IndexStore struct {
	backend storage.Backend
}

// NewIndexStore creates an index store on top of a storage backend
func NewIndexStore(backend storage.Backend) *IndexStore {
	return &IndexStore{backend: backend}
}

// Save replaces the stored snapshot in one write
func (s *IndexStore) Save(snapshot *models.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal archive index: %w", err)
	}
	if err := s.backend.Put(IndexKey, append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write archive index: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or nil if none was ever saved
func (s *IndexStore) Load() (*models.Snapshot, error) {
	data, err := s.backend.Get(IndexKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read archive index: %w", err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode archive index: %w", err)
	}
	return &snapshot, nil
}
