package memstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/territoryops/recon/pkg/model"
	"github.com/territoryops/recon/pkg/server/store"
)

func strPtr(s string) *string { return &s }

func seeded() *Store {
	s := New()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.PutBuilds(
		model.Build{ID: "b2", Name: "West", Region: "West", CreatedAt: t0.Add(time.Hour)},
		model.Build{ID: "b1", Name: "East", Region: "East", CreatedAt: t0},
	)
	s.PutAccounts(
		model.Account{BuildID: "b1", SFDCAccountID: "X", IsParent: true, OwnerID: "u1"},
		model.Account{BuildID: "b1", SFDCAccountID: "X-child", IsParent: false, OwnerID: "u1"},
		model.Account{BuildID: "b2", SFDCAccountID: "X", IsParent: true, OwnerID: "u1", NewOwnerID: strPtr("u2")},
	)
	return s
}

func TestListBuilds(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	all, err := s.ListBuilds(ctx, store.BuildFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b1", all[0].ID, "ordered by creation time")

	east, err := s.ListBuilds(ctx, store.BuildFilter{Region: "east"})
	require.NoError(t, err)
	require.Len(t, east, 1)
	assert.Equal(t, "b1", east[0].ID)

	byID, err := s.ListBuilds(ctx, store.BuildFilter{IDs: []string{"b2", "missing"}})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "b2", byID[0].ID)
}

func TestListTopLevelAccounts(t *testing.T) {
	s := seeded()
	accounts, err := s.ListTopLevelAccounts(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "X", accounts[0].SFDCAccountID)

	boom := errors.New("boom")
	s.FailList("b1", boom)
	_, err = s.ListTopLevelAccounts(context.Background(), "b1")
	assert.ErrorIs(t, err, boom)
}

func TestUpdateProposedOwner(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	owner := "u3"
	require.NoError(t, s.UpdateProposedOwner(ctx, store.OwnerUpdate{
		BuildID: "b1", SFDCAccountID: "X", OwnerID: &owner, OwnerName: strPtr("Una"),
	}))
	owner = "mutated"
	a, ok := s.Account("b1", "X")
	require.True(t, ok)
	assert.Equal(t, "u3", a.EffectiveOwnerID(), "stored value is copied")

	err := s.UpdateProposedOwner(ctx, store.OwnerUpdate{BuildID: "b9", SFDCAccountID: "X"})
	assert.ErrorIs(t, err, store.ErrAccountNotFound)

	s.FailUpdate("b2", "X", errors.New("write failed"))
	err = s.UpdateProposedOwner(ctx, store.OwnerUpdate{BuildID: "b2", SFDCAccountID: "X"})
	assert.EqualError(t, err, "write failed")
}

func TestResolutionsAndMarks(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	t0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordResolution(ctx, &model.Resolution{
		ID: "r1", SFDCAccountID: "X", BuildIDs: []string{"b2", "b1"}, ResolvedBy: "a", ResolvedAt: t0,
	}))
	require.NoError(t, s.RecordResolution(ctx, &model.Resolution{
		ID: "r2", SFDCAccountID: "X", BuildIDs: []string{"b1", "b2"}, ResolvedBy: "b", ResolvedAt: t0.Add(time.Hour),
	}))

	history, err := s.ListResolutions(ctx, "X")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "r2", history[0].ID)

	marks, err := s.FetchClashMarks(ctx, []string{"X"})
	require.NoError(t, err)
	require.Len(t, marks, 1, "same build set shares one mark")
	assert.Equal(t, "r2", marks[0].ResolutionID)
	assert.Equal(t, "b1,b2", marks[0].BuildKey)
}

func TestLoadSnapshot(t *testing.T) {
	doc := `{
	  "builds": [{"id": "b1", "name": "East", "status": "in_review", "region": "East"}],
	  "accounts": [{"build_id": "b1", "sfdc_account_id": "X", "is_parent": true, "owner_id": "u1", "arr": "1000"}]
	}`
	s, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Builds, 1)
	assert.Equal(t, model.BuildStatusInReview, snap.Builds[0].Status)
	require.Len(t, snap.Accounts, 1)
	assert.Equal(t, "1000", snap.Accounts[0].ARR.String())

	_, err = Load(strings.NewReader("{"))
	assert.Error(t, err)
}
