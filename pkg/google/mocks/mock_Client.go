// Package mocks provides test doubles for the google client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	google "github.com/sells-group/venue-cli/pkg/google"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// SearchNearby provides a mock function with given fields: ctx, req
func (_m *MockClient) SearchNearby(ctx context.Context, req google.SearchNearbyRequest) (*google.SearchNearbyResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for SearchNearby")
	}

	var r0 *google.SearchNearbyResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, google.SearchNearbyRequest) (*google.SearchNearbyResponse, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, google.SearchNearbyRequest) *google.SearchNearbyResponse); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*google.SearchNearbyResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, google.SearchNearbyRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ComputeRoutes provides a mock function with given fields: ctx, req
func (_m *MockClient) ComputeRoutes(ctx context.Context, req google.RouteRequest) (*google.RouteResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for ComputeRoutes")
	}

	var r0 *google.RouteResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, google.RouteRequest) (*google.RouteResponse, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, google.RouteRequest) *google.RouteResponse); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*google.RouteResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, google.RouteRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
