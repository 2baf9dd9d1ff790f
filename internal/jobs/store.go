// Package jobs manages recording job records and their lifecycle guards
package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"vthell-api/internal/storage"
	"vthell-api/pkg/models"
)

// Store persists one record per job id.
//
// Every operation is a single read-modify-write on one record with no
// locking across calls: two writers to the same id race and the last write
// wins. Writes to different ids never interfere.
type Store struct {
	backend storage.Backend
	logger  *slog.Logger
}

// NewStore creates a job store on top of a storage backend
func NewStore(backend storage.Backend) *Store {
	return &Store{
		backend: backend,
		logger:  slog.Default(),
	}
}

// Get returns the job stored under id, or nil if there is none
func (s *Store) Get(id string) (*models.Job, error) {
	data, err := s.backend.Get(id)
	if err != nil {
		// No job can be stored under an invalid key
		if errors.Is(err, storage.ErrNotExist) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read job %s: %w", id, err)
	}

	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	return &job, nil
}

// Create writes a new job. It fails with ErrConflict when a job with the same
// id exists, unless overwrite is set.
func (s *Store) Create(job *models.Job, overwrite bool) error {
	if !overwrite {
		existing, err := s.Get(job.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", ErrConflict, job.ID)
		}
	}

	if err := s.put(job); err != nil {
		return err
	}

	s.logger.Info("Job created", "job_id", job.ID, "filename", job.Filename, "overwrite", overwrite)
	return nil
}

// Reload replaces the resolver-owned fields of an existing pending job.
// The callback and lifecycle flags of the stored job are kept.
func (s *Store) Reload(id string, resolved *models.ResolvedStream) (*models.Job, error) {
	job, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if job.IsActive() {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, job.State())
	}
	if resolved.ID != id {
		return nil, fmt.Errorf("resolved id %q does not match job %q", resolved.ID, id)
	}

	job.ApplyResolved(resolved)
	if err := s.put(job); err != nil {
		return nil, err
	}

	s.logger.Info("Job reloaded", "job_id", id, "filename", job.Filename, "start_time", int64(job.StartTime))
	return job, nil
}

// Delete removes a job. Deleting a missing job succeeds.
func (s *Store) Delete(id string) error {
	if err := s.backend.Delete(id); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	s.logger.Info("Job deleted", "job_id", id)
	return nil
}

// List returns every stored job in backend order
func (s *Store) List() ([]*models.Job, error) {
	records, err := s.backend.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]*models.Job, 0, len(records))
	for _, r := range records {
		var job models.Job
		if err := json.Unmarshal(r.Data, &job); err != nil {
			// One unreadable file must not hide every other job
			s.logger.Warn("Skipping unreadable job record", "key", r.Key, "error", err)
			continue
		}
		jobs = append(jobs, &job)
	}
	return jobs, nil
}

func (s *Store) put(job *models.Job) error {
	data, err := job.MarshalIndent()
	if err != nil {
		return err
	}
	if err := s.backend.Put(job.ID, data); err != nil {
		return fmt.Errorf("failed to write job %s: %w", job.ID, err)
	}
	return nil
}
