// Package store provides storage abstractions for the reconciliation server.
//
// This package defines interfaces for database operations, allowing the
// clash collector, resolver and HTTP endpoints to be decoupled from the
// specific database implementation.
//
// # Available Stores
//
//   - BuildsStore: build listing with id and region filters
//   - AccountsStore: top-level account reads and proposed-owner writes
//   - BatchAccountsStore: all-or-nothing proposed-owner writes and resolution record
//   - ResolutionsStore: append-only resolution log and clash marks
//   - HealthStore: connectivity checks
//
// # Usage
//
//	accounts := gorm.NewAccountsStore(db)
//	err := accounts.UpdateProposedOwner(ctx, store.OwnerUpdate{BuildID: buildID, SFDCAccountID: accountID})
//	if err != nil {
//	    if errors.Is(err, store.ErrAccountNotFound) {
//	        // Handle not found
//	    }
//	}
package store
