package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"idrepo/internal/service"
)

type MockIdentityService struct {
	mock.Mock
}

var _ service.IdentityService = (*MockIdentityService)(nil)

func (m *MockIdentityService) Create(ctx context.Context, req *service.CreateRequest) (*service.Result, error) {
	args := m.Called(ctx, req)
	if res, ok := args.Get(0).(*service.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityService) Retrieve(ctx context.Context, uin string, filter service.Filter) (*service.Result, error) {
	args := m.Called(ctx, uin, filter)
	if res, ok := args.Get(0).(*service.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityService) Update(ctx context.Context, req *service.UpdateRequest) (*service.Result, error) {
	args := m.Called(ctx, req)
	if res, ok := args.Get(0).(*service.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}
