package store

import (
	"context"

	"github.com/territoryops/recon/pkg/model"
)

// ResolutionsStore abstracts the resolution audit log
type ResolutionsStore interface {
	// RecordResolution appends the resolution and upserts its clash mark.
	RecordResolution(ctx context.Context, resolution *model.Resolution) error

	// ListResolutions returns every resolution of an account, newest first.
	ListResolutions(ctx context.Context, accountID string) ([]model.Resolution, error)

	// FetchClashMarks returns the clash marks of the given accounts.
	FetchClashMarks(ctx context.Context, accountIDs []string) ([]model.ClashMark, error)
}
