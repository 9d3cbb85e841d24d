package clash

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/territoryops/recon/pkg/identity"
	"github.com/territoryops/recon/pkg/lock"
	"github.com/territoryops/recon/pkg/model"
	"github.com/territoryops/recon/pkg/server/store"
)

// Locker serialises resolutions of one account.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (lock.ReleaseFunc, error)
}

// ResolveRequest selects the winning build of a clash.
type ResolveRequest struct {
	TargetBuildID string   `json:"target_build_id" validate:"required"`
	Rationale     string   `json:"rationale" validate:"required"`
	BuildIDs      []string `json:"build_ids,omitempty" validate:"omitempty,dive,required"`
}

// Resolver propagates the effective owner of a winning build to every
// member build of a clash.
type Resolver struct {
	accounts    store.AccountsStore
	resolutions store.ResolutionsStore
	locker      Locker
	lockTTL     time.Duration
	validate    *validator.Validate
	logger      *logrus.Entry
	now         func() time.Time
	newID       func() string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLocker serialises resolutions per account using l.
func WithLocker(l Locker, ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.locker = l
		r.lockTTL = ttl
	}
}

// WithResolverLogger sets the logger for write failures.
func WithResolverLogger(entry *logrus.Entry) ResolverOption {
	return func(r *Resolver) {
		r.logger = entry
	}
}

// NewResolver creates a Resolver. When accounts implements
// store.BatchAccountsStore the owner writes and the resolution record are
// applied in one batch; otherwise rows are written concurrently and
// restored when a write or the record fails.
func NewResolver(accounts store.AccountsStore, resolutions store.ResolutionsStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		accounts:    accounts,
		resolutions: resolutions,
		lockTTL:     30 * time.Second,
		validate:    validator.New(),
		logger:      logrus.NewEntry(logrus.StandardLogger()),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClashLoader returns the current clash of the account being resolved.
type ClashLoader func(ctx context.Context) (Clash, error)

// Resolve applies req to c. See ResolveLatest.
func (r *Resolver) Resolve(ctx context.Context, auth *identity.AuthContext, c Clash, req ResolveRequest) (*model.Resolution, error) {
	return r.ResolveLatest(ctx, auth, c.AccountID, req, func(context.Context) (Clash, error) {
		return c, nil
	})
}

// ResolveLatest takes the resolution lock of accountID, loads its clash and
// applies req to it. The clash is loaded while the lock is held and
// preconditions are checked before any write. On success every member row
// carries the winner's effective owner as its proposed owner and one
// resolution record has been appended. Writes are not cancelled by ctx.
func (r *Resolver) ResolveLatest(ctx context.Context, auth *identity.AuthContext, accountID string, req ResolveRequest, load ClashLoader) (*model.Resolution, error) {
	if auth == nil {
		return nil, ErrNoIdentity
	}

	writeCtx := context.WithoutCancel(ctx)

	if r.locker != nil {
		release, err := r.locker.Acquire(writeCtx, "clash:"+accountID, r.lockTTL)
		if errors.Is(err, lock.ErrHeld) {
			return nil, ErrResolutionInProgress
		}
		if err != nil {
			return nil, fmt.Errorf("acquire resolution lock: %w", err)
		}
		defer func() {
			if err := release(writeCtx); err != nil {
				r.logger.WithField("account_id", accountID).WithError(err).Warn("failed to release resolution lock")
			}
		}()
	}

	c, err := load(ctx)
	if err != nil {
		return nil, err
	}
	target, err := r.checkPreconditions(c, &req)
	if err != nil {
		return nil, err
	}

	resolution, err := r.write(writeCtx, auth, c, target, req)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"account_id": c.AccountID,
			"user":       auth.UserID,
		}).WithError(err).Error("resolution writes failed")
		return nil, err
	}
	return resolution, nil
}

func (r *Resolver) write(ctx context.Context, auth *identity.AuthContext, c Clash, target AssignmentView, req ResolveRequest) (*model.Resolution, error) {
	ownerID := target.EffectiveOwnerID
	ownerName := target.EffectiveOwnerName
	updates := make([]store.OwnerUpdate, 0, len(c.Views))
	for _, v := range c.Views {
		updates = append(updates, store.OwnerUpdate{
			BuildID:       v.BuildID,
			SFDCAccountID: c.AccountID,
			OwnerID:       &ownerID,
			OwnerName:     &ownerName,
		})
	}

	resolution := &model.Resolution{
		ID:             r.newID(),
		SFDCAccountID:  c.AccountID,
		BuildIDs:       c.BuildIDs(),
		WinningBuildID: target.BuildID,
		OwnerID:        ownerID,
		OwnerName:      ownerName,
		Description:    describe(c, target),
		Rationale:      req.Rationale,
		ResolvedBy:     auth.UserID,
		ResolvedAt:     r.now(),
	}

	if batch, ok := r.accounts.(store.BatchAccountsStore); ok {
		if err := batch.ApplyResolution(ctx, updates, resolution); err != nil {
			return nil, &ResolutionError{
				AccountID:    c.AccountID,
				FailedBuilds: c.BuildIDs(),
				Err:          err,
			}
		}
		return resolution, nil
	}

	if err := r.apply(ctx, c, updates); err != nil {
		return nil, err
	}
	if err := r.resolutions.RecordResolution(ctx, resolution); err != nil {
		return nil, &ResolutionError{
			AccountID:       c.AccountID,
			Err:             fmt.Errorf("record resolution: %w", err),
			CompensationErr: r.restore(ctx, c, updates),
		}
	}
	return resolution, nil
}

func (r *Resolver) checkPreconditions(c Clash, req *ResolveRequest) (AssignmentView, error) {
	req.TargetBuildID = strings.TrimSpace(req.TargetBuildID)
	req.Rationale = strings.TrimSpace(req.Rationale)

	if err := r.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Rationale" {
					return AssignmentView{}, ErrRationaleRequired
				}
			}
			return AssignmentView{}, ErrTargetNotInClash
		}
		return AssignmentView{}, err
	}

	target, ok := c.View(req.TargetBuildID)
	if !ok {
		return AssignmentView{}, ErrTargetNotInClash
	}
	if strings.TrimSpace(target.EffectiveOwnerID) == "" {
		return AssignmentView{}, ErrTargetNoOwner
	}
	return target, nil
}

// apply writes every update concurrently and restores the rows that were
// written when any write fails.
func (r *Resolver) apply(ctx context.Context, c Clash, updates []store.OwnerUpdate) error {
	var (
		mu      sync.Mutex
		applied []store.OwnerUpdate
		failed  []string
		errs    *multierror.Error
	)

	var g errgroup.Group
	for _, u := range updates {
		g.Go(func() error {
			err := r.accounts.UpdateProposedOwner(ctx, u)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, u.BuildID)
				errs = multierror.Append(errs, fmt.Errorf("build %s: %w", u.BuildID, err))
				return nil
			}
			applied = append(applied, u)
			return nil
		})
	}
	_ = g.Wait()

	if errs == nil {
		return nil
	}

	sort.Strings(failed)
	return &ResolutionError{
		AccountID:       c.AccountID,
		FailedBuilds:    failed,
		Err:             errs.ErrorOrNil(),
		CompensationErr: r.restore(ctx, c, applied),
	}
}

// restore writes back the proposed owners the clash views were read with.
func (r *Resolver) restore(ctx context.Context, c Clash, applied []store.OwnerUpdate) error {
	var errs *multierror.Error
	for _, u := range applied {
		prior, _ := c.View(u.BuildID)
		err := r.accounts.UpdateProposedOwner(ctx, store.OwnerUpdate{
			BuildID:       u.BuildID,
			SFDCAccountID: u.SFDCAccountID,
			OwnerID:       prior.ProposedOwnerID,
			OwnerName:     prior.ProposedOwnerName,
		})
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("restore build %s: %w", u.BuildID, err))
		}
	}
	return errs.ErrorOrNil()
}

func describe(c Clash, target AssignmentView) string {
	build := target.BuildName
	if build == "" {
		build = target.BuildID
	}
	return fmt.Sprintf("Assigned %s (%s) from build %s across %d builds",
		target.EffectiveOwnerName, target.EffectiveOwnerID, build, len(c.Views))
}
