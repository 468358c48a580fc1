package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"idrepo/internal/storage"
)

type MockBlobStore struct {
	mock.Mock
}

var _ storage.BlobStore = (*MockBlobStore)(nil)

func (m *MockBlobStore) EnsureContainer(ctx context.Context, uin string) error {
	args := m.Called(ctx, uin)
	return args.Error(0)
}

func (m *MockBlobStore) Put(ctx context.Context, uin, key string, data []byte) error {
	args := m.Called(ctx, uin, key, data)
	return args.Error(0)
}

func (m *MockBlobStore) List(ctx context.Context, uin, prefix string) ([]storage.Object, error) {
	args := m.Called(ctx, uin, prefix)
	if objs, ok := args.Get(0).([]storage.Object); ok {
		return objs, args.Error(1)
	}
	return nil, args.Error(1)
}
