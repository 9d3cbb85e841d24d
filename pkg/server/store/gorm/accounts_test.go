package gorm

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/territoryops/recon/pkg/server/store"
)

var accountColumns = []string{
	"id", "build_id", "sfdc_account_id", "account_name", "is_parent",
	"owner_id", "owner_name", "new_owner_id", "new_owner_name", "arr",
}

func TestAccountsStore_ListTopLevelAccounts(t *testing.T) {
	m := newMockDB(t)
	m.Mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE build_id = \$1 AND is_parent = \$2 ORDER BY sfdc_account_id`).
		WithArgs("b1", true).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(1, "b1", "X", "Acme", true, "u1", "Ursula", "u2", "Uma", "1250000.50").
			AddRow(2, "b1", "Y", "Globex", true, "u3", "Ivan", nil, nil, "0"))

	accounts, err := NewAccountsStore(m.GormDB).ListTopLevelAccounts(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	assert.Equal(t, "u2", accounts[0].EffectiveOwnerID())
	assert.True(t, accounts[0].ARR.Equal(decimal.RequireFromString("1250000.50")))
	assert.False(t, accounts[1].HasProposal())
	assert.Equal(t, "u3", accounts[1].EffectiveOwnerID())
	m.verify(t)
}

func TestAccountsStore_UpdateProposedOwner(t *testing.T) {
	update := store.OwnerUpdate{
		BuildID:       "b1",
		SFDCAccountID: "X",
		OwnerID:       strPtr("u2"),
		OwnerName:     strPtr("Uma"),
	}

	t.Run("updates the matching row", func(t *testing.T) {
		m := newMockDB(t)
		m.Mock.ExpectBegin()
		m.Mock.ExpectExec(`UPDATE "accounts" SET .*"new_owner_id"=.* WHERE build_id = .* AND sfdc_account_id = `).
			WillReturnResult(sqlmock.NewResult(0, 1))
		m.Mock.ExpectCommit()

		err := NewAccountsStore(m.GormDB).UpdateProposedOwner(context.Background(), update)
		assert.NoError(t, err)
		m.verify(t)
	})

	t.Run("reports missing rows", func(t *testing.T) {
		m := newMockDB(t)
		m.Mock.ExpectBegin()
		m.Mock.ExpectExec(`UPDATE "accounts"`).WillReturnResult(sqlmock.NewResult(0, 0))
		m.Mock.ExpectCommit()

		err := NewAccountsStore(m.GormDB).UpdateProposedOwner(context.Background(), update)
		assert.ErrorIs(t, err, store.ErrAccountNotFound)
		m.verify(t)
	})
}

func TestAccountsStore_ApplyResolution(t *testing.T) {
	updates := []store.OwnerUpdate{
		{BuildID: "b1", SFDCAccountID: "X", OwnerID: strPtr("u2"), OwnerName: strPtr("Uma")},
		{BuildID: "b2", SFDCAccountID: "X", OwnerID: strPtr("u2"), OwnerName: strPtr("Uma")},
	}

	t.Run("commits the rows, the record and the mark together", func(t *testing.T) {
		m := newMockDB(t)
		m.Mock.ExpectBegin()
		m.Mock.ExpectExec(`UPDATE "accounts"`).WillReturnResult(sqlmock.NewResult(0, 1))
		m.Mock.ExpectExec(`UPDATE "accounts"`).WillReturnResult(sqlmock.NewResult(0, 1))
		m.Mock.ExpectExec(`INSERT INTO "clash_resolutions"`).WillReturnResult(sqlmock.NewResult(0, 1))
		m.Mock.ExpectExec(`INSERT INTO "clash_marks" .* ON CONFLICT`).WillReturnResult(sqlmock.NewResult(0, 1))
		m.Mock.ExpectCommit()

		err := NewAccountsStore(m.GormDB).ApplyResolution(context.Background(), updates, sampleResolution())
		assert.NoError(t, err)
		m.verify(t)
	})

	t.Run("rolls back on the first failure", func(t *testing.T) {
		m := newMockDB(t)
		m.Mock.ExpectBegin()
		m.Mock.ExpectExec(`UPDATE "accounts"`).WillReturnResult(sqlmock.NewResult(0, 1))
		m.Mock.ExpectExec(`UPDATE "accounts"`).WillReturnError(errors.New("deadlock detected"))
		m.Mock.ExpectRollback()

		err := NewAccountsStore(m.GormDB).ApplyResolution(context.Background(), updates, sampleResolution())
		assert.EqualError(t, err, "deadlock detected")
		m.verify(t)
	})

	t.Run("rolls back when a row is missing", func(t *testing.T) {
		m := newMockDB(t)
		m.Mock.ExpectBegin()
		m.Mock.ExpectExec(`UPDATE "accounts"`).WillReturnResult(sqlmock.NewResult(0, 0))
		m.Mock.ExpectRollback()

		err := NewAccountsStore(m.GormDB).ApplyResolution(context.Background(), updates, sampleResolution())
		assert.ErrorIs(t, err, store.ErrAccountNotFound)
		m.verify(t)
	})

	t.Run("rolls back the owner writes when the record fails", func(t *testing.T) {
		m := newMockDB(t)
		m.Mock.ExpectBegin()
		m.Mock.ExpectExec(`UPDATE "accounts"`).WillReturnResult(sqlmock.NewResult(0, 1))
		m.Mock.ExpectExec(`UPDATE "accounts"`).WillReturnResult(sqlmock.NewResult(0, 1))
		m.Mock.ExpectExec(`INSERT INTO "clash_resolutions"`).WillReturnError(errors.New("permission denied"))
		m.Mock.ExpectRollback()

		err := NewAccountsStore(m.GormDB).ApplyResolution(context.Background(), updates, sampleResolution())
		assert.EqualError(t, err, "permission denied")
		m.verify(t)
	})
}
