package clash

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/territoryops/recon/pkg/identity"
	"github.com/territoryops/recon/pkg/model"
	"github.com/territoryops/recon/pkg/server/store"
)

// ErrNoIdentity is returned when a pass is requested without a caller.
var ErrNoIdentity = errors.New("caller identity is required")

// Collector gathers the top-level account assignments of every build
// visible to a caller.
type Collector struct {
	builds      store.BuildsStore
	accounts    store.AccountsStore
	globalRoles []string
	concurrency int
	logger      *logrus.Entry
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithGlobalRoles sets the roles that see every region.
func WithGlobalRoles(roles []string) CollectorOption {
	return func(c *Collector) {
		c.globalRoles = roles
	}
}

// WithConcurrency caps concurrent per-build fetches. Zero or less means
// every fetch is in flight at once.
func WithConcurrency(n int) CollectorOption {
	return func(c *Collector) {
		c.concurrency = n
	}
}

// WithCollectorLogger sets the logger used for omitted build warnings.
func WithCollectorLogger(entry *logrus.Entry) CollectorOption {
	return func(c *Collector) {
		c.logger = entry
	}
}

// NewCollector creates a Collector over the given stores.
func NewCollector(builds store.BuildsStore, accounts store.AccountsStore, opts ...CollectorOption) *Collector {
	c := &Collector{
		builds:   builds,
		accounts: accounts,
		logger:   logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect lists the builds visible to auth (restricted to buildIDs when
// given), fetches their top-level accounts concurrently and merges the
// result by account id. A failed per-build fetch is recorded in Omitted and
// does not fail the pass; only a failure to list builds does.
func (c *Collector) Collect(ctx context.Context, auth *identity.AuthContext, buildIDs []string) (*Collection, error) {
	if auth == nil {
		return nil, ErrNoIdentity
	}

	builds, err := c.visibleBuilds(ctx, auth, buildIDs)
	if err != nil {
		return nil, err
	}

	type fetched struct {
		build    model.Build
		accounts []model.Account
	}

	var (
		mu      sync.Mutex
		results = make([]fetched, 0, len(builds))
		omitted []OmittedBuild
	)

	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for _, b := range builds {
		g.Go(func() error {
			accounts, err := c.accounts.ListTopLevelAccounts(ctx, b.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				omitted = append(omitted, OmittedBuild{
					BuildID:   b.ID,
					BuildName: b.Name,
					Reason:    err.Error(),
					Err:       err,
				})
				return nil
			}
			results = append(results, fetched{build: b, accounts: accounts})
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(omitted, func(i, j int) bool { return omitted[i].BuildID < omitted[j].BuildID })
	for _, o := range omitted {
		c.logger.WithFields(logrus.Fields{
			"build_id": o.BuildID,
			"user":     auth.UserID,
		}).WithError(o.Err).Warn("omitting build from clash detection")
	}

	byAccount := make(map[string][]AssignmentView)
	seen := make(map[string]map[string]bool)
	for _, r := range results {
		for _, a := range r.accounts {
			if !a.IsParent || a.SFDCAccountID == "" {
				continue
			}
			if seen[a.SFDCAccountID] == nil {
				seen[a.SFDCAccountID] = map[string]bool{}
			}
			if seen[a.SFDCAccountID][r.build.ID] {
				continue
			}
			seen[a.SFDCAccountID][r.build.ID] = true
			byAccount[a.SFDCAccountID] = append(byAccount[a.SFDCAccountID], NewAssignmentView(r.build, a))
		}
	}

	return &Collection{
		Builds:    builds,
		ByAccount: byAccount,
		Omitted:   omitted,
	}, nil
}

// VisibleBuilds lists the builds the caller may see.
func (c *Collector) VisibleBuilds(ctx context.Context, auth *identity.AuthContext, buildIDs []string) ([]model.Build, error) {
	if auth == nil {
		return nil, ErrNoIdentity
	}
	return c.visibleBuilds(ctx, auth, buildIDs)
}

func (c *Collector) visibleBuilds(ctx context.Context, auth *identity.AuthContext, buildIDs []string) ([]model.Build, error) {
	filter := store.BuildFilter{IDs: buildIDs}
	if !auth.IsGlobal(c.globalRoles) {
		if auth.Region == "" {
			return []model.Build{}, nil
		}
		filter.Region = auth.Region
	}

	builds, err := c.builds.ListBuilds(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}

	visible := make([]model.Build, 0, len(builds))
	for _, b := range builds {
		if auth.CanSeeRegion(b.Region, c.globalRoles) {
			visible = append(visible, b)
		}
	}
	return visible, nil
}
