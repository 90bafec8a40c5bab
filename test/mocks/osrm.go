package mocks

import (
	"context"

	"github.com/richxcame/osrm-route/internal/osrm"
	"github.com/richxcame/osrm-route/pkg/geo"
	"github.com/stretchr/testify/mock"
)

// MockFetcher is a mock implementation of osrm.Fetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, origin, destination geo.Point) ([]byte, error) {
	args := m.Called(ctx, origin, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockRouteService is a mock implementation of osrm.RouteService
type MockRouteService struct {
	mock.Mock
}

func (m *MockRouteService) GetProjectedRoute(ctx context.Context, origin, destination geo.Point) (*osrm.ProjectedRoute, error) {
	args := m.Called(ctx, origin, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*osrm.ProjectedRoute), args.Error(1)
}
