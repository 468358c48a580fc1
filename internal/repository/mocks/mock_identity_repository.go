package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"idrepo/internal/model"
	"idrepo/internal/repository"
	"idrepo/internal/shard"
)

type MockIdentityRepository struct {
	mock.Mock
}

var _ repository.IdentityRepository = (*MockIdentityRepository)(nil)

func (m *MockIdentityRepository) ExistsByUin(ctx context.Context, sc shard.Context, uin string) (bool, error) {
	args := m.Called(ctx, sc, uin)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdentityRepository) ExistsByRegistrationID(ctx context.Context, sc shard.Context, regID string) (bool, error) {
	args := m.Called(ctx, sc, regID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdentityRepository) StatusByUin(ctx context.Context, sc shard.Context, uin string) (string, error) {
	args := m.Called(ctx, sc, uin)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityRepository) FindByUin(ctx context.Context, sc shard.Context, uin string) (*model.IdentityRecord, error) {
	args := m.Called(ctx, sc, uin)
	if rec, ok := args.Get(0).(*model.IdentityRecord); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityRepository) Create(ctx context.Context, sc shard.Context, rec *model.IdentityRecord,
	bios []model.BiometricAsset, docs []model.DocumentAsset) (*model.IdentityRecord, error) {
	args := m.Called(ctx, sc, rec, bios, docs)
	if out, ok := args.Get(0).(*model.IdentityRecord); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityRepository) UpdateStatus(ctx context.Context, sc shard.Context, rec *model.IdentityRecord, status string) (*model.IdentityRecord, error) {
	args := m.Called(ctx, sc, rec, status)
	if out, ok := args.Get(0).(*model.IdentityRecord); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityRepository) UpdateDocument(ctx context.Context, sc shard.Context, rec *model.IdentityRecord, document []byte, hash string) (*model.IdentityRecord, error) {
	args := m.Called(ctx, sc, rec, document, hash)
	if out, ok := args.Get(0).(*model.IdentityRecord); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockHistoryLedger struct {
	mock.Mock
}

var _ repository.HistoryLedger = (*MockHistoryLedger)(nil)

func (m *MockHistoryLedger) AppendRecordSnapshot(ctx context.Context, ex repository.Execer, snap *model.RecordSnapshot) error {
	args := m.Called(ctx, ex, snap)
	return args.Error(0)
}

func (m *MockHistoryLedger) AppendBiometricSnapshot(ctx context.Context, ex repository.Execer, snap *model.BiometricSnapshot) error {
	args := m.Called(ctx, ex, snap)
	return args.Error(0)
}

func (m *MockHistoryLedger) AppendDocumentSnapshot(ctx context.Context, ex repository.Execer, snap *model.DocumentSnapshot) error {
	args := m.Called(ctx, ex, snap)
	return args.Error(0)
}
