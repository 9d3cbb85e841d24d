package store

import (
	"context"
	"errors"

	"github.com/territoryops/recon/pkg/model"
)

// ErrAccountNotFound is returned when an update matches no account row
var ErrAccountNotFound = errors.New("account not found")

// OwnerUpdate sets the proposed owner of one account row. Nil fields clear
// the proposal.
type OwnerUpdate struct {
	BuildID       string
	SFDCAccountID string
	OwnerID       *string
	OwnerName     *string
}

// AccountsStore abstracts account storage operations
type AccountsStore interface {
	// ListTopLevelAccounts returns the parent account rows of a build.
	ListTopLevelAccounts(ctx context.Context, buildID string) ([]model.Account, error)

	// UpdateProposedOwner writes the proposed owner of one account row.
	// Returns ErrAccountNotFound if no row matched.
	UpdateProposedOwner(ctx context.Context, update OwnerUpdate) error
}

// BatchAccountsStore is implemented by stores that can apply several
// proposed-owner updates and the resolution they belong to atomically.
type BatchAccountsStore interface {
	AccountsStore

	// ApplyResolution applies every update, appends the resolution and
	// upserts its clash mark, or does none of them.
	ApplyResolution(ctx context.Context, updates []OwnerUpdate, resolution *model.Resolution) error
}
