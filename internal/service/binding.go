package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apetrenko/tgfactor/internal/logger"
	"github.com/apetrenko/tgfactor/internal/model"
)

// BindingService enforces that a telegram chat is bound to at most one
// account at a time. The store applies clear-then-assign as one
// transaction; this service adds the bounded compensation: on a
// conflict that slipped through, re-clear the conflicting owner and
// retry exactly once. A third-order race is the caller's to retry.
type BindingService struct {
	store  model.BindingStore
	logger *logger.Logger
}

func NewBindingService(store model.BindingStore, logger *logger.Logger) *BindingService {
	return &BindingService{store: store, logger: logger}
}

// Bind assigns the chat to the user, verified, with a fresh link
// timestamp, displacing any previous owner.
func (s *BindingService) Bind(ctx context.Context, userID int64, chatID, chatUsername string) error {
	err := s.store.Assign(ctx, userID, chatID, chatUsername, time.Now())
	if err == nil {
		s.logger.Info("Binding service: chat bound",
			"user_id", userID,
			"chat_id", chatID)
		return nil
	}
	if !errors.Is(err, model.ErrBindingConflict) {
		return fmt.Errorf("failed to assign binding: %w", err)
	}

	s.logger.Info("Binding service: binding conflict, clearing and retrying once",
		"user_id", userID,
		"chat_id", chatID)

	if err := s.store.ClearByChatID(ctx, chatID, userID); err != nil {
		return fmt.Errorf("failed to clear conflicting binding: %w", err)
	}

	if err := s.store.Assign(ctx, userID, chatID, chatUsername, time.Now()); err != nil {
		if errors.Is(err, model.ErrBindingConflict) {
			s.logger.Error("Binding service: binding conflict survived retry",
				"user_id", userID,
				"chat_id", chatID)
			return model.ErrBindingConflict
		}
		return fmt.Errorf("failed to assign binding on retry: %w", err)
	}

	s.logger.Info("Binding service: chat bound after retry",
		"user_id", userID,
		"chat_id", chatID)
	return nil
}

// Revoke clears the user's own binding. Idempotent: revoking an
// already-empty binding succeeds.
func (s *BindingService) Revoke(ctx context.Context, userID int64) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke binding: %w", err)
	}

	s.logger.Info("Binding service: binding revoked",
		"user_id", userID)
	return nil
}

// Get returns the user's current binding, if any.
func (s *BindingService) Get(ctx context.Context, userID int64) (model.TelegramBinding, error) {
	binding, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TelegramBinding{}, model.ErrNotFound
		}
		return model.TelegramBinding{}, fmt.Errorf("failed to get binding: %w", err)
	}
	return binding, nil
}
