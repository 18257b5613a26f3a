package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/apetrenko/tgfactor/internal/model"
)

// RecoveryCodeStore is a mock implementation of model.RecoveryCodeStore.
type RecoveryCodeStore struct {
	mock.Mock
}

func (m *RecoveryCodeStore) AddBatch(ctx context.Context, codes []model.RecoveryCode) error {
	args := m.Called(ctx, codes)
	return args.Error(0)
}

func (m *RecoveryCodeStore) CountForUser(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *RecoveryCodeStore) FindActiveByLookup(ctx context.Context, userID int64, lookup string) ([]model.RecoveryCode, error) {
	args := m.Called(ctx, userID, lookup)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RecoveryCode), args.Error(1)
}

func (m *RecoveryCodeStore) ListActive(ctx context.Context, userID int64) ([]model.RecoveryCode, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RecoveryCode), args.Error(1)
}

func (m *RecoveryCodeStore) Consume(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
