package clash

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/territoryops/recon/pkg/audit"
	"github.com/territoryops/recon/pkg/identity"
	"github.com/territoryops/recon/pkg/metrics"
	"github.com/territoryops/recon/pkg/model"
	"github.com/territoryops/recon/pkg/server/store"
)

// Service runs detection passes and resolutions on behalf of a caller.
type Service struct {
	collector   *Collector
	resolver    *Resolver
	resolutions store.ResolutionsStore
	logger      *logrus.Entry
}

// NewService wires a collector, resolver and resolution store together.
func NewService(collector *Collector, resolver *Resolver, resolutions store.ResolutionsStore, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		collector:   collector,
		resolver:    resolver,
		resolutions: resolutions,
		logger:      logger,
	}
}

// Builds lists the builds visible to auth.
func (s *Service) Builds(ctx context.Context, auth *identity.AuthContext) ([]model.Build, error) {
	return s.collector.VisibleBuilds(ctx, auth, nil)
}

// Detect collects and classifies the builds visible to auth. Clashes are
// annotated with their latest clash mark; a failure to read marks is
// logged and leaves every clash unresolved.
func (s *Service) Detect(ctx context.Context, auth *identity.AuthContext, buildIDs []string) (*Detection, error) {
	start := time.Now()
	detection, err := s.detect(ctx, auth, buildIDs)

	event := audit.DetectEvent{BuildIDs: buildIDs, Success: err == nil}
	if auth != nil {
		event.UserID = auth.UserID
		event.Role = auth.Role
		event.Region = auth.Region
		event.ClientIP = clientIP(auth)
	}
	if err != nil {
		event.ErrorMessage = err.Error()
		metrics.RecordDetection(time.Since(start), nil, 0, err)
		audit.LogContext(ctx, event)
		return nil, err
	}

	event.Clashes = len(detection.Clashes)
	event.Omitted = len(detection.Omitted)
	metrics.RecordDetection(time.Since(start), detection.CountBySeverity(), len(detection.Omitted), nil)
	audit.LogContext(ctx, event)
	return detection, nil
}

func (s *Service) detect(ctx context.Context, auth *identity.AuthContext, buildIDs []string) (*Detection, error) {
	collection, err := s.collector.Collect(ctx, auth, buildIDs)
	if err != nil {
		return nil, err
	}

	clashes := DetectClashes(collection.ByAccount)
	if len(clashes) > 0 {
		ids := make([]string, len(clashes))
		for i, c := range clashes {
			ids[i] = c.AccountID
		}
		marks, err := s.resolutions.FetchClashMarks(ctx, ids)
		if err != nil {
			s.logger.WithError(err).Warn("failed to load clash marks")
		} else {
			clashes = MarkResolved(clashes, marks)
		}
	}

	omitted := collection.Omitted
	if omitted == nil {
		omitted = []OmittedBuild{}
	}
	return &Detection{
		Builds:  collection.Builds,
		Clashes: clashes,
		Omitted: omitted,
	}, nil
}

// Resolve re-detects the clash of accountID over req.BuildIDs (every
// visible build when empty) under the resolution lock and resolves it.
func (s *Service) Resolve(ctx context.Context, auth *identity.AuthContext, accountID string, req ResolveRequest) (*model.Resolution, error) {
	start := time.Now()
	event := audit.ResolveEvent{AccountID: accountID, WinningBuildID: req.TargetBuildID}
	if auth != nil {
		event.UserID = auth.UserID
		event.ClientIP = clientIP(auth)
	}

	resolution, err := s.resolve(ctx, auth, accountID, req)
	metrics.RecordResolution(resolutionResult(err), time.Since(start))
	if err != nil {
		event.ErrorMessage = err.Error()
		audit.LogContext(ctx, event)
		return nil, err
	}

	event.Success = true
	event.BuildIDs = resolution.BuildIDs
	event.OwnerID = resolution.OwnerID
	event.ResolutionID = resolution.ID
	audit.LogContext(ctx, event)

	s.logger.WithFields(logrus.Fields{
		"account_id":    accountID,
		"winning_build": resolution.WinningBuildID,
		"owner_id":      resolution.OwnerID,
		"user":          resolution.ResolvedBy,
	}).Info("clash resolved")
	return resolution, nil
}

func (s *Service) resolve(ctx context.Context, auth *identity.AuthContext, accountID string, req ResolveRequest) (*model.Resolution, error) {
	return s.resolver.ResolveLatest(ctx, auth, accountID, req, func(ctx context.Context) (Clash, error) {
		collection, err := s.collector.Collect(ctx, auth, req.BuildIDs)
		if err != nil {
			return Clash{}, err
		}
		c, ok := Classify(accountID, collection.ByAccount[accountID])
		if !ok {
			return Clash{}, ErrClashNotFound
		}
		return c, nil
	})
}

// History returns the resolution records of an account, newest first.
// Callers without a global role only see records touching a build in their
// region.
func (s *Service) History(ctx context.Context, auth *identity.AuthContext, accountID string) ([]model.Resolution, error) {
	if auth == nil {
		return nil, ErrNoIdentity
	}
	resolutions, err := s.resolutions.ListResolutions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if auth.IsGlobal(s.collector.globalRoles) {
		if resolutions == nil {
			resolutions = []model.Resolution{}
		}
		return resolutions, nil
	}

	builds, err := s.collector.VisibleBuilds(ctx, auth, nil)
	if err != nil {
		return nil, err
	}
	visible := make(map[string]bool, len(builds))
	for _, b := range builds {
		visible[b.ID] = true
	}

	out := make([]model.Resolution, 0, len(resolutions))
	for _, res := range resolutions {
		for _, id := range res.BuildIDs {
			if visible[id] {
				out = append(out, res)
				break
			}
		}
	}
	return out, nil
}

func resolutionResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case IsPrecondition(err), errors.Is(err, ErrClashNotFound):
		return metrics.ResultRejected
	case errors.Is(err, ErrResolutionInProgress):
		return metrics.ResultConflict
	default:
		return metrics.ResultFailed
	}
}

func clientIP(auth *identity.AuthContext) string {
	if auth.RemoteIP == nil {
		return ""
	}
	return auth.RemoteIP.String()
}
