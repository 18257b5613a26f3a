package model

import (
	"context"
	"time"
)

// BindingStore persists telegram bindings. Assign must apply its
// clear-then-assign sequence in a single transaction and surface a
// unique violation on chat_id as ErrBindingConflict.
type BindingStore interface {
	Get(ctx context.Context, userID int64) (TelegramBinding, error)
	EnsurePlaceholder(ctx context.Context, userID int64) error
	Assign(ctx context.Context, userID int64, chatID, chatUsername string, linkedAt time.Time) error
	ClearByChatID(ctx context.Context, chatID string, exceptUserID int64) error
	Clear(ctx context.Context, userID int64) error
	GetUserByChatID(ctx context.Context, chatID string) (User, error)
}

// TelegramBinding associates a user with at most one telegram chat.
// A non-nil ChatID is unique across all rows.
type TelegramBinding struct {
	ID           int64
	UserID       int64
	ChatID       *string
	ChatUsername *string
	IsVerified   bool
	LinkedAt     *time.Time
}
