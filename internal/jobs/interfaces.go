package jobs

import (
	"context"

	"vthell-api/pkg/models"
)

// Resolver turns a submitted stream identifier into job metadata
//
//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks
type Resolver interface {
	// ParseID extracts the platform video id without any network access
	ParseID(identifier string) (string, error)
	// Resolve fetches the stream metadata for identifier
	Resolve(ctx context.Context, identifier string) (*models.ResolvedStream, error)
}
