package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/apetrenko/tgfactor/internal/model"
)

var _ model.RecoveryCodeStore = (*RecoveryCodeRepository)(nil)

type RecoveryCodeRepository struct {
	db *Connection
}

func NewRecoveryCodeRepository(db *Connection) *RecoveryCodeRepository {
	return &RecoveryCodeRepository{db: db}
}

// AddBatch inserts a code batch atomically: a recovery set exists in
// full or not at all.
func (r *RecoveryCodeRepository) AddBatch(ctx context.Context, codes []model.RecoveryCode) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin recovery code transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
        INSERT INTO recovery_codes (user_id, code_hash, code_lookup, used)
        VALUES ($1, $2, $3, $4)
    `
	for _, code := range codes {
		if _, err := tx.Exec(ctx, query, code.UserID, code.CodeHash, code.CodeLookup, code.Used); err != nil {
			return fmt.Errorf("failed to insert recovery code: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit recovery code batch: %w", err)
	}
	return nil
}

func (r *RecoveryCodeRepository) CountForUser(ctx context.Context, userID int64) (int, error) {
	const query = `SELECT count(*) FROM recovery_codes WHERE user_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recovery codes: %w", err)
	}
	return count, nil
}

func (r *RecoveryCodeRepository) FindActiveByLookup(ctx context.Context, userID int64, lookup string) ([]model.RecoveryCode, error) {
	const query = `
        SELECT id, user_id, code_hash, code_lookup, used, created_at
        FROM recovery_codes
        WHERE user_id = $1 AND code_lookup = $2 AND NOT used
    `
	rows, err := r.db.Query(ctx, query, userID, lookup)
	if err != nil {
		return nil, fmt.Errorf("failed to find recovery codes by lookup: %w", err)
	}
	defer rows.Close()

	return scanRecoveryCodes(rows)
}

func (r *RecoveryCodeRepository) ListActive(ctx context.Context, userID int64) ([]model.RecoveryCode, error) {
	const query = `
        SELECT id, user_id, code_hash, code_lookup, used, created_at
        FROM recovery_codes
        WHERE user_id = $1 AND NOT used
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active recovery codes: %w", err)
	}
	defer rows.Close()

	return scanRecoveryCodes(rows)
}

func (r *RecoveryCodeRepository) Consume(ctx context.Context, id int64) error {
	const query = `
        UPDATE recovery_codes
        SET used = TRUE
        WHERE id = $1 AND NOT used
    `
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to consume recovery code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAlreadyUsed
	}
	return nil
}

func scanRecoveryCodes(rows pgx.Rows) ([]model.RecoveryCode, error) {
	var codes []model.RecoveryCode
	for rows.Next() {
		var c model.RecoveryCode
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.CodeHash, &c.CodeLookup, &c.Used, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recovery code: %w", err)
		}
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recovery codes: %w", err)
	}
	return codes, nil
}
