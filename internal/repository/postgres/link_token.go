package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/apetrenko/tgfactor/internal/model"
)

var _ model.LinkTokenStore = (*LinkTokenRepository)(nil)

type LinkTokenRepository struct {
	db *Connection
}

func NewLinkTokenRepository(db *Connection) *LinkTokenRepository {
	return &LinkTokenRepository{db: db}
}

func (r *LinkTokenRepository) Create(ctx context.Context, token model.LinkToken) (model.LinkToken, error) {
	const query = `
        INSERT INTO link_tokens (user_id, token_hash, token_lookup, expires_at, used)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, user_id, token_hash, token_lookup, expires_at, used, created_at
    `
	var saved model.LinkToken
	if err := r.db.QueryRow(ctx, query,
		token.UserID, token.TokenHash, token.TokenLookup, token.ExpiresAt, token.Used,
	).Scan(
		&saved.ID, &saved.UserID, &saved.TokenHash, &saved.TokenLookup,
		&saved.ExpiresAt, &saved.Used, &saved.CreatedAt,
	); err != nil {
		return model.LinkToken{}, fmt.Errorf("failed to create link token: %w", err)
	}
	return saved, nil
}

func (r *LinkTokenRepository) FindActiveByLookup(ctx context.Context, lookup string) ([]model.LinkToken, error) {
	const query = `
        SELECT id, user_id, token_hash, token_lookup, expires_at, used, created_at
        FROM link_tokens
        WHERE token_lookup = $1 AND NOT used AND expires_at > now()
    `
	rows, err := r.db.Query(ctx, query, lookup)
	if err != nil {
		return nil, fmt.Errorf("failed to find link tokens by lookup: %w", err)
	}
	defer rows.Close()

	return scanLinkTokens(rows)
}

func (r *LinkTokenRepository) ListActive(ctx context.Context) ([]model.LinkToken, error) {
	const query = `
        SELECT id, user_id, token_hash, token_lookup, expires_at, used, created_at
        FROM link_tokens
        WHERE NOT used AND expires_at > now()
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active link tokens: %w", err)
	}
	defer rows.Close()

	return scanLinkTokens(rows)
}

func (r *LinkTokenRepository) Consume(ctx context.Context, id int64) error {
	const query = `
        UPDATE link_tokens
        SET used = TRUE
        WHERE id = $1 AND NOT used
    `
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to consume link token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAlreadyUsed
	}
	return nil
}

func scanLinkTokens(rows pgx.Rows) ([]model.LinkToken, error) {
	var tokens []model.LinkToken
	for rows.Next() {
		var t model.LinkToken
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.TokenHash, &t.TokenLookup,
			&t.ExpiresAt, &t.Used, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read link tokens: %w", err)
	}
	return tokens, nil
}
