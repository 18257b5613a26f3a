package model

import (
	"context"
	"time"
)

// RecoveryCodeStore persists single-use recovery codes.
type RecoveryCodeStore interface {
	AddBatch(ctx context.Context, codes []RecoveryCode) error
	CountForUser(ctx context.Context, userID int64) (int, error)
	FindActiveByLookup(ctx context.Context, userID int64, lookup string) ([]RecoveryCode, error)
	ListActive(ctx context.Context, userID int64) ([]RecoveryCode, error)
	Consume(ctx context.Context, id int64) error
}

// RecoveryCode is a single-use account recovery secret. Codes have no
// expiry; they die only by consumption.
type RecoveryCode struct {
	ID         int64
	UserID     int64
	CodeHash   string
	CodeLookup string
	Used       bool
	CreatedAt  time.Time
}
