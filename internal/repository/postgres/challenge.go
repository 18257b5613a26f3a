package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apetrenko/tgfactor/internal/model"
)

var _ model.ChallengeStore = (*ChallengeRepository)(nil)

type ChallengeRepository struct {
	db *Connection
}

func NewChallengeRepository(db *Connection) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) Create(ctx context.Context, challenge model.OTPChallenge) error {
	const query = `
        INSERT INTO otp_challenges (id, user_id, code_hash, expires_at, used, context)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	if _, err := r.db.Exec(ctx, query,
		challenge.ID,
		challenge.UserID,
		challenge.CodeHash,
		challenge.ExpiresAt,
		challenge.Used,
		string(challenge.Context),
	); err != nil {
		return fmt.Errorf("failed to create otp challenge: %w", err)
	}
	return nil
}

func (r *ChallengeRepository) GetByID(ctx context.Context, id uuid.UUID) (model.OTPChallenge, error) {
	const query = `
        SELECT id, user_id, code_hash, expires_at, used, context, created_at
        FROM otp_challenges
        WHERE id = $1
    `
	var c model.OTPChallenge
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.CodeHash, &c.ExpiresAt, &c.Used, &c.Context, &c.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.OTPChallenge{}, model.ErrNotFound
		}
		return model.OTPChallenge{}, fmt.Errorf("failed to get otp challenge: %w", err)
	}
	return c, nil
}

// Consume flips used conditionally on the record's current state, so
// at most one caller wins under concurrent verification attempts.
func (r *ChallengeRepository) Consume(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE otp_challenges
        SET used = TRUE
        WHERE id = $1 AND NOT used
    `
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to consume otp challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAlreadyUsed
	}
	return nil
}
