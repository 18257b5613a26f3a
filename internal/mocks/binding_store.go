package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/apetrenko/tgfactor/internal/model"
)

// BindingStore is a mock implementation of model.BindingStore.
type BindingStore struct {
	mock.Mock
}

func (m *BindingStore) Get(ctx context.Context, userID int64) (model.TelegramBinding, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.TelegramBinding), args.Error(1)
}

func (m *BindingStore) EnsurePlaceholder(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *BindingStore) Assign(ctx context.Context, userID int64, chatID, chatUsername string, linkedAt time.Time) error {
	args := m.Called(ctx, userID, chatID, chatUsername, linkedAt)
	return args.Error(0)
}

func (m *BindingStore) ClearByChatID(ctx context.Context, chatID string, exceptUserID int64) error {
	args := m.Called(ctx, chatID, exceptUserID)
	return args.Error(0)
}

func (m *BindingStore) Clear(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *BindingStore) GetUserByChatID(ctx context.Context, chatID string) (model.User, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(model.User), args.Error(1)
}
