package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/territoryops/recon/pkg/model"
	"github.com/territoryops/recon/pkg/server/store"
)

// Ensure AccountsStore implements store.BatchAccountsStore
var _ store.BatchAccountsStore = (*AccountsStore)(nil)

// AccountsStore implements store.BatchAccountsStore using GORM
type AccountsStore struct {
	db *gorm.DB
}

// NewAccountsStore creates a new AccountsStore
func NewAccountsStore(db *gorm.DB) *AccountsStore {
	return &AccountsStore{db: db}
}

// ListTopLevelAccounts returns the parent account rows of a build.
func (s *AccountsStore) ListTopLevelAccounts(ctx context.Context, buildID string) ([]model.Account, error) {
	var accounts []model.Account
	err := s.db.WithContext(ctx).
		Where("build_id = ? AND is_parent = ?", buildID, true).
		Order("sfdc_account_id").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// UpdateProposedOwner writes the proposed owner of one account row.
func (s *AccountsStore) UpdateProposedOwner(ctx context.Context, update store.OwnerUpdate) error {
	return updateProposedOwner(s.db.WithContext(ctx), update)
}

// ApplyResolution applies every update and records the resolution inside a
// single transaction.
func (s *AccountsStore) ApplyResolution(ctx context.Context, updates []store.OwnerUpdate, resolution *model.Resolution) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, update := range updates {
			if err := updateProposedOwner(tx, update); err != nil {
				return err
			}
		}
		return recordResolution(tx, resolution)
	})
}

func updateProposedOwner(tx *gorm.DB, update store.OwnerUpdate) error {
	result := tx.Model(&model.Account{}).
		Where("build_id = ? AND sfdc_account_id = ?", update.BuildID, update.SFDCAccountID).
		Updates(map[string]interface{}{
			"new_owner_id":   update.OwnerID,
			"new_owner_name": update.OwnerName,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrAccountNotFound
	}
	return nil
}
