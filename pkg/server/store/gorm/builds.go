package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/territoryops/recon/pkg/model"
	"github.com/territoryops/recon/pkg/server/store"
)

// Ensure BuildsStore implements store.BuildsStore
var _ store.BuildsStore = (*BuildsStore)(nil)

// BuildsStore implements store.BuildsStore using GORM
type BuildsStore struct {
	db *gorm.DB
}

// NewBuildsStore creates a new BuildsStore
func NewBuildsStore(db *gorm.DB) *BuildsStore {
	return &BuildsStore{db: db}
}

// ListBuilds returns builds matching the filter ordered by creation time.
func (s *BuildsStore) ListBuilds(ctx context.Context, filter store.BuildFilter) ([]model.Build, error) {
	query := s.db.WithContext(ctx).Model(&model.Build{})
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.Region != "" {
		query = query.Where("LOWER(region) = LOWER(?)", filter.Region)
	}

	var builds []model.Build
	if err := query.Order("created_at").Find(&builds).Error; err != nil {
		return nil, err
	}
	return builds, nil
}
