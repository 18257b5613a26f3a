package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/apetrenko/tgfactor/internal/model"
)

var _ model.BindingStore = (*BindingRepository)(nil)

type BindingRepository struct {
	db *Connection
}

func NewBindingRepository(db *Connection) *BindingRepository {
	return &BindingRepository{db: db}
}

func (r *BindingRepository) Get(ctx context.Context, userID int64) (model.TelegramBinding, error) {
	const query = `
        SELECT id, user_id, chat_id, chat_username, is_verified, linked_at
        FROM telegram_bindings
        WHERE user_id = $1
    `
	var b model.TelegramBinding
	if err := r.db.QueryRow(ctx, query, userID).Scan(
		&b.ID, &b.UserID, &b.ChatID, &b.ChatUsername, &b.IsVerified, &b.LinkedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TelegramBinding{}, model.ErrNotFound
		}
		return model.TelegramBinding{}, fmt.Errorf("failed to get binding: %w", err)
	}
	return b, nil
}

func (r *BindingRepository) EnsurePlaceholder(ctx context.Context, userID int64) error {
	const query = `
        INSERT INTO telegram_bindings (user_id)
        VALUES ($1)
        ON CONFLICT (user_id) DO NOTHING
    `
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to create binding placeholder: %w", err)
	}
	return nil
}

// Assign clears chatID from any other user's row and upserts the
// caller's row as one transaction, so the chat never observably loses
// all owners between the two steps. A unique violation that still
// surfaces (a concurrent assign interleaved after our clear) comes
// back as ErrBindingConflict for the coordinator to retry.
func (r *BindingRepository) Assign(ctx context.Context, userID int64, chatID, chatUsername string, linkedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin binding transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const clearQuery = `
        UPDATE telegram_bindings
        SET chat_id = NULL, chat_username = NULL, is_verified = FALSE, linked_at = NULL
        WHERE chat_id = $1 AND user_id <> $2
    `
	if _, err := tx.Exec(ctx, clearQuery, chatID, userID); err != nil {
		return fmt.Errorf("failed to clear conflicting binding: %w", err)
	}

	const assignQuery = `
        INSERT INTO telegram_bindings (user_id, chat_id, chat_username, is_verified, linked_at)
        VALUES ($1, $2, $3, TRUE, $4)
        ON CONFLICT (user_id) DO UPDATE
        SET chat_id = EXCLUDED.chat_id,
            chat_username = EXCLUDED.chat_username,
            is_verified = TRUE,
            linked_at = EXCLUDED.linked_at
    `
	if _, err := tx.Exec(ctx, assignQuery, userID, chatID, chatUsername, linkedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrBindingConflict
		}
		return fmt.Errorf("failed to assign binding: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrBindingConflict
		}
		return fmt.Errorf("failed to commit binding transaction: %w", err)
	}
	return nil
}

func (r *BindingRepository) ClearByChatID(ctx context.Context, chatID string, exceptUserID int64) error {
	const query = `
        UPDATE telegram_bindings
        SET chat_id = NULL, chat_username = NULL, is_verified = FALSE, linked_at = NULL
        WHERE chat_id = $1 AND user_id <> $2
    `
	if _, err := r.db.Exec(ctx, query, chatID, exceptUserID); err != nil {
		return fmt.Errorf("failed to clear binding by chat id: %w", err)
	}
	return nil
}

func (r *BindingRepository) Clear(ctx context.Context, userID int64) error {
	const query = `
        UPDATE telegram_bindings
        SET chat_id = NULL, chat_username = NULL, is_verified = FALSE, linked_at = NULL
        WHERE user_id = $1
    `
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear binding: %w", err)
	}
	return nil
}

func (r *BindingRepository) GetUserByChatID(ctx context.Context, chatID string) (model.User, error) {
	const query = `
        SELECT u.id, u.email, u.username, u.password_hash, u.is_active, u.created_at, u.updated_at
        FROM users u
        JOIN telegram_bindings b ON b.user_id = u.id
        WHERE b.chat_id = $1 AND b.is_verified
    `
	var user model.User
	if err := r.db.QueryRow(ctx, query, chatID).Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by chat id: %w", err)
	}
	return user, nil
}
