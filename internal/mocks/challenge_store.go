package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/apetrenko/tgfactor/internal/model"
)

// ChallengeStore is a mock implementation of model.ChallengeStore.
type ChallengeStore struct {
	mock.Mock
}

func (m *ChallengeStore) Create(ctx context.Context, challenge model.OTPChallenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}

func (m *ChallengeStore) GetByID(ctx context.Context, id uuid.UUID) (model.OTPChallenge, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.OTPChallenge), args.Error(1)
}

func (m *ChallengeStore) Consume(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
