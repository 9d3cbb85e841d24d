package store

import (
	"context"

	"github.com/territoryops/recon/pkg/model"
)

// BuildFilter narrows a build listing. Empty fields match everything.
type BuildFilter struct {
	IDs    []string
	Region string
}

// BuildsStore abstracts build storage operations
type BuildsStore interface {
	// ListBuilds returns builds matching the filter ordered by creation time.
	ListBuilds(ctx context.Context, filter BuildFilter) ([]model.Build, error)
}
