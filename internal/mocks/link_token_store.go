package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/apetrenko/tgfactor/internal/model"
)

// LinkTokenStore is a mock implementation of model.LinkTokenStore.
type LinkTokenStore struct {
	mock.Mock
}

func (m *LinkTokenStore) Create(ctx context.Context, token model.LinkToken) (model.LinkToken, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.LinkToken), args.Error(1)
}

func (m *LinkTokenStore) FindActiveByLookup(ctx context.Context, lookup string) ([]model.LinkToken, error) {
	args := m.Called(ctx, lookup)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LinkToken), args.Error(1)
}

func (m *LinkTokenStore) ListActive(ctx context.Context) ([]model.LinkToken, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LinkToken), args.Error(1)
}

func (m *LinkTokenStore) Consume(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
