package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/apetrenko/tgfactor/internal/logger"
	"github.com/apetrenko/tgfactor/internal/model"
)

const otpLength = 6

// ChallengeService issues and consumes one-time-code challenges. Codes
// are stored only as salted digests; the challenge ID returned at
// issuance is the lookup handle and is not itself secret.
type ChallengeService struct {
	store  model.ChallengeStore
	hasher Hasher
	logger *logger.Logger
}

// Hasher is the salted one-way digest dependency of the lifecycle
// services.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encoded string) bool
}

// Indexer is the deterministic lookup-digest dependency of the
// lifecycle services.
type Indexer interface {
	Index(plaintext string) string
}

func NewChallengeService(store model.ChallengeStore, hasher Hasher, logger *logger.Logger) *ChallengeService {
	return &ChallengeService{store: store, hasher: hasher, logger: logger}
}

// IssuedChallenge is the caller-facing result of Issue. Plaintext is
// returned exactly once and never persisted.
type IssuedChallenge struct {
	ID        uuid.UUID
	Plaintext string
	ExpiresAt time.Time
}

// Issue creates a challenge with a fresh random code for the user.
func (s *ChallengeService) Issue(ctx context.Context, userID int64, ttl time.Duration, challengeContext model.ChallengeContext) (IssuedChallenge, error) {
	code, err := randomDigits(otpLength)
	if err != nil {
		return IssuedChallenge{}, fmt.Errorf("failed to generate otp code: %w", err)
	}

	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return IssuedChallenge{}, fmt.Errorf("failed to hash otp code: %w", err)
	}

	challenge := model.OTPChallenge{
		ID:        uuid.New(),
		UserID:    userID,
		CodeHash:  codeHash,
		ExpiresAt: time.Now().Add(ttl),
		Used:      false,
		Context:   challengeContext,
	}

	if err := s.store.Create(ctx, challenge); err != nil {
		return IssuedChallenge{}, fmt.Errorf("failed to create otp challenge: %w", err)
	}

	s.logger.Info("Challenge service: otp challenge issued",
		"challenge_id", challenge.ID,
		"user_id", userID,
		"context", string(challengeContext))

	return IssuedChallenge{ID: challenge.ID, Plaintext: code, ExpiresAt: challenge.ExpiresAt}, nil
}

// VerifyAndConsume validates the code against the stored challenge and
// consumes it. Rejection order is fixed: missing record, already used,
// expired, then digest mismatch — expiry is checked before the digest
// so the outcome never reveals whether an expired code was otherwise
// correct. The conditional store update makes one caller the single
// winner under concurrent attempts.
func (s *ChallengeService) VerifyAndConsume(ctx context.Context, id uuid.UUID, code string) (model.OTPChallenge, error) {
	challenge, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.OTPChallenge{}, model.ErrNotFound
		}
		return model.OTPChallenge{}, fmt.Errorf("failed to get otp challenge: %w", err)
	}

	if challenge.Used {
		return model.OTPChallenge{}, model.ErrAlreadyUsed
	}
	if time.Now().After(challenge.ExpiresAt) {
		return model.OTPChallenge{}, model.ErrExpired
	}
	if !s.hasher.Verify(code, challenge.CodeHash) {
		return model.OTPChallenge{}, model.ErrInvalidSecret
	}

	if err := s.store.Consume(ctx, id); err != nil {
		if errors.Is(err, model.ErrAlreadyUsed) {
			return model.OTPChallenge{}, model.ErrAlreadyUsed
		}
		return model.OTPChallenge{}, fmt.Errorf("failed to consume otp challenge: %w", err)
	}

	s.logger.Info("Challenge service: otp challenge consumed",
		"challenge_id", id,
		"user_id", challenge.UserID,
		"context", string(challenge.Context))

	return challenge, nil
}

func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	for i := range buf {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}

// normalizeSecretErr collapses the four lifecycle rejection reasons
// into the single caller-facing outcome. Callers must not be able to
// distinguish a wrong code from an expired or consumed one.
func normalizeSecretErr(err error) error {
	if errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrAlreadyUsed) ||
		errors.Is(err, model.ErrExpired) ||
		errors.Is(err, model.ErrInvalidSecret) {
		return model.ErrInvalidChallenge
	}
	return err
}
