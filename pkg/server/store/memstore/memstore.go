// Package memstore provides an in-memory implementation of the build,
// account and resolution stores. It backs unit tests and the fixture mode of
// reconctl, and supports injecting per-build failures.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/territoryops/recon/pkg/model"
	"github.com/territoryops/recon/pkg/server/store"
)

var (
	_ store.BuildsStore      = (*Store)(nil)
	_ store.AccountsStore    = (*Store)(nil)
	_ store.ResolutionsStore = (*Store)(nil)
	_ store.HealthStore      = (*Store)(nil)
)

// Snapshot is the serialisable representation of the in-memory state.
type Snapshot struct {
	Builds      []model.Build      `json:"builds"`
	Accounts    []model.Account    `json:"accounts"`
	Resolutions []model.Resolution `json:"resolutions,omitempty"`
}

type rowKey struct {
	buildID   string
	accountID string
}

type markKey struct {
	accountID string
	buildKey  string
}

// Store keeps builds, accounts and resolutions in memory. It deliberately
// does not implement store.BatchAccountsStore: writes are applied one row
// at a time.
type Store struct {
	mu          sync.RWMutex
	builds      map[string]model.Build
	accounts    map[rowKey]model.Account
	resolutions []model.Resolution
	marks       map[markKey]model.ClashMark

	listFailures   map[string]error
	updateFailures map[rowKey]error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		builds:         map[string]model.Build{},
		accounts:       map[rowKey]model.Account{},
		marks:          map[markKey]model.ClashMark{},
		listFailures:   map[string]error{},
		updateFailures: map[rowKey]error{},
	}
}

// Load decodes a JSON snapshot into a new store.
func Load(r io.Reader) (*Store, error) {
	var snapshot Snapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	s := New()
	s.PutBuilds(snapshot.Builds...)
	s.PutAccounts(snapshot.Accounts...)
	for i := range snapshot.Resolutions {
		res := snapshot.Resolutions[i]
		s.resolutions = append(s.resolutions, res)
		mark := res.Mark()
		s.marks[markKey{mark.SFDCAccountID, mark.BuildKey}] = mark
	}
	return s, nil
}

// Snapshot exports the current state ordered by build and account id.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Snapshot{}
	for _, b := range s.builds {
		out.Builds = append(out.Builds, b)
	}
	sort.Slice(out.Builds, func(i, j int) bool { return out.Builds[i].ID < out.Builds[j].ID })
	for _, a := range s.accounts {
		out.Accounts = append(out.Accounts, a)
	}
	sort.Slice(out.Accounts, func(i, j int) bool {
		if out.Accounts[i].BuildID != out.Accounts[j].BuildID {
			return out.Accounts[i].BuildID < out.Accounts[j].BuildID
		}
		return out.Accounts[i].SFDCAccountID < out.Accounts[j].SFDCAccountID
	})
	out.Resolutions = append(out.Resolutions, s.resolutions...)
	return out
}

// PutBuilds inserts or replaces builds.
func (s *Store) PutBuilds(builds ...model.Build) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range builds {
		s.builds[b.ID] = b
	}
}

// PutAccounts inserts or replaces account rows keyed by build and account id.
func (s *Store) PutAccounts(accounts ...model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accounts {
		s.accounts[rowKey{a.BuildID, a.SFDCAccountID}] = a
	}
}

// Account returns a copy of one account row.
func (s *Store) Account(buildID, accountID string) (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[rowKey{buildID, accountID}]
	return a, ok
}

// FailList makes ListTopLevelAccounts fail for a build.
func (s *Store) FailList(buildID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listFailures[buildID] = err
}

// FailUpdate makes UpdateProposedOwner fail for one row.
func (s *Store) FailUpdate(buildID, accountID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateFailures[rowKey{buildID, accountID}] = err
}

// ListBuilds returns builds matching the filter ordered by creation time.
func (s *Store) ListBuilds(ctx context.Context, filter store.BuildFilter) ([]model.Build, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := map[string]bool{}
	for _, id := range filter.IDs {
		wanted[id] = true
	}

	var builds []model.Build
	for _, b := range s.builds {
		if len(wanted) > 0 && !wanted[b.ID] {
			continue
		}
		if filter.Region != "" && !strings.EqualFold(b.Region, filter.Region) {
			continue
		}
		builds = append(builds, b)
	}
	sort.Slice(builds, func(i, j int) bool {
		if !builds[i].CreatedAt.Equal(builds[j].CreatedAt) {
			return builds[i].CreatedAt.Before(builds[j].CreatedAt)
		}
		return builds[i].ID < builds[j].ID
	})
	return builds, nil
}

// ListTopLevelAccounts returns the parent account rows of a build.
func (s *Store) ListTopLevelAccounts(ctx context.Context, buildID string) ([]model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.listFailures[buildID]; err != nil {
		return nil, err
	}

	var accounts []model.Account
	for key, a := range s.accounts {
		if key.buildID == buildID && a.IsParent {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].SFDCAccountID < accounts[j].SFDCAccountID })
	return accounts, nil
}

// UpdateProposedOwner writes the proposed owner of one account row.
func (s *Store) UpdateProposedOwner(ctx context.Context, update store.OwnerUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rowKey{update.BuildID, update.SFDCAccountID}
	if err := s.updateFailures[key]; err != nil {
		return err
	}
	a, ok := s.accounts[key]
	if !ok {
		return store.ErrAccountNotFound
	}
	a.NewOwnerID = copyString(update.OwnerID)
	a.NewOwnerName = copyString(update.OwnerName)
	a.UpdatedAt = time.Now().UTC()
	s.accounts[key] = a
	return nil
}

// RecordResolution appends the resolution and replaces its clash mark.
func (s *Store) RecordResolution(ctx context.Context, resolution *model.Resolution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resolutions = append(s.resolutions, *resolution)
	mark := resolution.Mark()
	s.marks[markKey{mark.SFDCAccountID, mark.BuildKey}] = mark
	return nil
}

// ListResolutions returns every resolution of an account, newest first.
func (s *Store) ListResolutions(ctx context.Context, accountID string) ([]model.Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Resolution
	for _, r := range s.resolutions {
		if r.SFDCAccountID == accountID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ResolvedAt.After(out[j].ResolvedAt) })
	return out, nil
}

// FetchClashMarks returns the clash marks of the given accounts.
func (s *Store) FetchClashMarks(ctx context.Context, accountIDs []string) ([]model.ClashMark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := map[string]bool{}
	for _, id := range accountIDs {
		wanted[id] = true
	}
	var out []model.ClashMark
	for key, mark := range s.marks {
		if wanted[key.accountID] {
			out = append(out, mark)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SFDCAccountID != out[j].SFDCAccountID {
			return out[i].SFDCAccountID < out[j].SFDCAccountID
		}
		return out[i].BuildKey < out[j].BuildKey
	})
	return out, nil
}

// CheckConnectivity always succeeds.
func (s *Store) CheckConnectivity(ctx context.Context) error {
	return ctx.Err()
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
