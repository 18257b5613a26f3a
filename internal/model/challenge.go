package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChallengeContext tags the flow an OTP challenge belongs to.
type ChallengeContext string

const (
	ContextLogin          ChallengeContext = "login"
	ContextSensitive      ChallengeContext = "sensitive"
	ContextTelegramChange ChallengeContext = "telegram_change"
)

// Valid reports whether the context is one of the known tags.
func (c ChallengeContext) Valid() bool {
	switch c {
	case ContextLogin, ContextSensitive, ContextTelegramChange:
		return true
	}
	return false
}

// ChallengeStore persists OTP challenges. Consume must flip used
// conditionally on used=false and report a zero-row update as
// ErrAlreadyUsed.
type ChallengeStore interface {
	Create(ctx context.Context, challenge OTPChallenge) error
	GetByID(ctx context.Context, id uuid.UUID) (OTPChallenge, error)
	Consume(ctx context.Context, id uuid.UUID) error
}

// OTPChallenge is a single-use one-time-code challenge. Only the
// salted digest of the code is stored.
type OTPChallenge struct {
	ID        uuid.UUID
	UserID    int64
	CodeHash  string
	ExpiresAt time.Time
	Used      bool
	Context   ChallengeContext
	CreatedAt time.Time
}
