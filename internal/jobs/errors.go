package jobs

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned when creating a job whose id is already stored
	ErrConflict = errors.New("job already exists")
	// ErrNotFound is returned when operating on a job that is not stored
	ErrNotFound = errors.New("job not found")
	// ErrInvalidTransition is returned when reloading a job that is recording or recorded
	ErrInvalidTransition = errors.New("job is being recorded or already recorded")
)

// ResolutionError reports that stream metadata could not be resolved. No job
// is written when it is returned.
type ResolutionError struct {
	Identifier string
	Err        error
}

// Error implements the error interface for ResolutionError
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %q: %v", e.Identifier, e.Err)
}

// Unwrap returns the underlying resolver error
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// asResolutionError wraps err unless it already is a ResolutionError
func asResolutionError(identifier string, err error) error {
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return err
	}
	return &ResolutionError{Identifier: identifier, Err: err}
}
