package endpoints

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/territoryops/recon/pkg/clash"
	"github.com/territoryops/recon/pkg/identity"
	"github.com/territoryops/recon/pkg/model"
)

// MockClashService implements ClashService for testing using testify/mock
type MockClashService struct {
	mock.Mock
}

func NewMockClashService() *MockClashService {
	return &MockClashService{}
}

func (m *MockClashService) Builds(ctx context.Context, auth *identity.AuthContext) ([]model.Build, error) {
	args := m.Called(ctx, auth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Build), args.Error(1)
}

func (m *MockClashService) Detect(ctx context.Context, auth *identity.AuthContext, buildIDs []string) (*clash.Detection, error) {
	args := m.Called(ctx, auth, buildIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clash.Detection), args.Error(1)
}

func (m *MockClashService) Resolve(ctx context.Context, auth *identity.AuthContext, accountID string, req clash.ResolveRequest) (*model.Resolution, error) {
	args := m.Called(ctx, auth, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Resolution), args.Error(1)
}

func (m *MockClashService) History(ctx context.Context, auth *identity.AuthContext, accountID string) ([]model.Resolution, error) {
	args := m.Called(ctx, auth, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Resolution), args.Error(1)
}

// MockHealthStore implements store.HealthStore for testing using testify/mock
type MockHealthStore struct {
	mock.Mock
}

func NewMockHealthStore() *MockHealthStore {
	return &MockHealthStore{}
}

func (m *MockHealthStore) CheckConnectivity(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
