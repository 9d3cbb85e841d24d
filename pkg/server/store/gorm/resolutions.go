package gorm

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/territoryops/recon/pkg/model"
	"github.com/territoryops/recon/pkg/server/store"
)

// Ensure ResolutionsStore implements store.ResolutionsStore
var _ store.ResolutionsStore = (*ResolutionsStore)(nil)

// ResolutionsStore implements store.ResolutionsStore using GORM
type ResolutionsStore struct {
	db *gorm.DB
}

// NewResolutionsStore creates a new ResolutionsStore
func NewResolutionsStore(db *gorm.DB) *ResolutionsStore {
	return &ResolutionsStore{db: db}
}

// RecordResolution appends the resolution and upserts its clash mark in one
// transaction.
func (s *ResolutionsStore) RecordResolution(ctx context.Context, resolution *model.Resolution) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return recordResolution(tx, resolution)
	})
}

func recordResolution(tx *gorm.DB, resolution *model.Resolution) error {
	if err := tx.Create(resolution).Error; err != nil {
		return err
	}
	mark := resolution.Mark()
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sfdc_account_id"}, {Name: "build_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"resolution_id", "resolved_by", "resolved_at"}),
	}).Create(&mark).Error
}

// ListResolutions returns every resolution of an account, newest first.
func (s *ResolutionsStore) ListResolutions(ctx context.Context, accountID string) ([]model.Resolution, error) {
	var resolutions []model.Resolution
	err := s.db.WithContext(ctx).
		Where("sfdc_account_id = ?", accountID).
		Order("resolved_at desc").
		Find(&resolutions).Error
	if err != nil {
		return nil, err
	}
	return resolutions, nil
}

// FetchClashMarks returns the clash marks of the given accounts.
func (s *ResolutionsStore) FetchClashMarks(ctx context.Context, accountIDs []string) ([]model.ClashMark, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	var marks []model.ClashMark
	if err := s.db.WithContext(ctx).Where("sfdc_account_id IN ?", accountIDs).Find(&marks).Error; err != nil {
		return nil, err
	}
	return marks, nil
}
