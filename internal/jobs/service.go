package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"vthell-api/pkg/models"
)

// DefaultResolveTimeout bounds a single resolver call
const DefaultResolveTimeout = 10 * time.Second

// Service exposes job operations to the HTTP layer and CLI
type Service struct {
	store          *Store
	resolver       Resolver
	validate       *validator.Validate
	resolveTimeout time.Duration
	logger         *slog.Logger
}

// NewService creates a job service. A non-positive timeout uses DefaultResolveTimeout.
func NewService(store *Store, resolver Resolver, resolveTimeout time.Duration) *Service {
	if resolveTimeout <= 0 {
		resolveTimeout = DefaultResolveTimeout
	}
	return &Service{
		store:          store,
		resolver:       resolver,
		validate:       validator.New(),
		resolveTimeout: resolveTimeout,
		logger:         slog.Default(),
	}
}

// CreateJob resolves identifier and stores a new pending job. An empty
// callback leaves discordCallback unset.
func (s *Service) CreateJob(ctx context.Context, identifier, callback string, overwrite bool) (*models.Job, error) {
	resolved, err := s.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	job := models.NewJob(resolved)
	job.DiscordCallback = callback

	if err := s.store.Create(job, overwrite); err != nil {
		return nil, err
	}
	return job, nil
}

// ReloadJob re-resolves the metadata of a pending job. The job is addressed
// by the id parsed from identifier.
func (s *Service) ReloadJob(ctx context.Context, identifier string) (*models.Job, error) {
	id, err := s.resolver.ParseID(identifier)
	if err != nil {
		return nil, asResolutionError(identifier, err)
	}

	// Reject before spending an API call; Store.Reload checks again
	existing, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if existing.IsActive() {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, existing.State())
	}

	resolved, err := s.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if resolved.ID != id {
		return nil, &ResolutionError{
			Identifier: identifier,
			Err:        fmt.Errorf("resolved id %q does not match %q", resolved.ID, id),
		}
	}

	return s.store.Reload(id, resolved)
}

// DeleteJob removes a job; missing jobs are not an error
func (s *Service) DeleteJob(id string) error {
	return s.store.Delete(id)
}

// GetJob returns the job or nil when absent
func (s *Service) GetJob(id string) (*models.Job, error) {
	return s.store.Get(id)
}

// ListJobs returns all jobs not in exclude, ordered by start time
func (s *Service) ListJobs(exclude []string) ([]*models.Job, error) {
	all, err := s.store.List()
	if err != nil {
		return nil, err
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	jobs := make([]*models.Job, 0, len(all))
	for _, job := range all {
		if _, ok := skip[job.ID]; ok {
			continue
		}
		jobs = append(jobs, job)
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].StartTime < jobs[j].StartTime
	})
	return jobs, nil
}

// JobStates looks up each id; ids without a job map to nil
func (s *Service) JobStates(ids []string) (map[string]*models.Job, error) {
	result := make(map[string]*models.Job, len(ids))
	for _, id := range ids {
		job, err := s.store.Get(id)
		if err != nil {
			return nil, err
		}
		result[id] = job
	}
	return result, nil
}

func (s *Service) resolve(ctx context.Context, identifier string) (*models.ResolvedStream, error) {
	ctx, cancel := context.WithTimeout(ctx, s.resolveTimeout)
	defer cancel()

	resolved, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", s.resolveTimeout, err)
		}
		s.logger.Warn("Failed to resolve stream", "identifier", identifier, "error", err)
		return nil, asResolutionError(identifier, err)
	}
	if resolved == nil {
		return nil, &ResolutionError{Identifier: identifier, Err: errors.New("resolver returned no metadata")}
	}
	if err := s.validate.Struct(resolved); err != nil {
		return nil, &ResolutionError{Identifier: identifier, Err: fmt.Errorf("invalid metadata: %w", err)}
	}
	return resolved, nil
}
