package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/apetrenko/tgfactor/internal/logger"
	"github.com/apetrenko/tgfactor/internal/model"
)

// Human-transcribable alphabet: no 0/O, 1/I ambiguity.
const recoveryAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	recoveryGroupLen = 4
	// RecoveryBatchSize is the number of codes generated per batch.
	RecoveryBatchSize = 8
)

// RecoveryService generates and consumes single-use recovery codes.
type RecoveryService struct {
	store   model.RecoveryCodeStore
	hasher  Hasher
	indexer Indexer
	logger  *logger.Logger
}

func NewRecoveryService(store model.RecoveryCodeStore, hasher Hasher, indexer Indexer, logger *logger.Logger) *RecoveryService {
	return &RecoveryService{store: store, hasher: hasher, indexer: indexer, logger: logger}
}

// Generate creates count recovery codes for the user and returns the
// plaintexts. This is the only moment the plaintexts exist outside the
// caller: afterwards the system holds digests only.
func (s *RecoveryService) Generate(ctx context.Context, userID int64, count int) ([]string, error) {
	plaintexts := make([]string, 0, count)
	records := make([]model.RecoveryCode, 0, count)

	for i := 0; i < count; i++ {
		code, err := randomRecoveryCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate recovery code: %w", err)
		}

		codeHash, err := s.hasher.Hash(code)
		if err != nil {
			return nil, fmt.Errorf("failed to hash recovery code: %w", err)
		}

		plaintexts = append(plaintexts, code)
		records = append(records, model.RecoveryCode{
			UserID:     userID,
			CodeHash:   codeHash,
			CodeLookup: s.indexer.Index(code),
			Used:       false,
		})
	}

	if err := s.store.AddBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to store recovery codes: %w", err)
	}

	s.logger.Info("Recovery service: recovery codes generated",
		"user_id", userID,
		"count", count)

	return plaintexts, nil
}

// HasCodes reports whether the user already owns any recovery codes,
// used or not.
func (s *RecoveryService) HasCodes(ctx context.Context, userID int64) (bool, error) {
	count, err := s.store.CountForUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to count recovery codes: %w", err)
	}
	return count > 0, nil
}

// Consume validates and consumes one of the user's recovery codes.
// Candidate retrieval goes through the deterministic index scoped to
// the user; zero or multiple index hits degrade to a per-user linear
// scan. A candidate only counts after the salted digest verifies.
func (s *RecoveryService) Consume(ctx context.Context, userID int64, plaintext string) error {
	candidates, err := s.store.FindActiveByLookup(ctx, userID, s.indexer.Index(plaintext))
	if err != nil {
		return fmt.Errorf("failed to look up recovery code: %w", err)
	}

	matched, ok := s.match(plaintext, candidates)
	if !ok && len(candidates) != 1 {
		all, err := s.store.ListActive(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to scan recovery codes: %w", err)
		}
		s.logger.Debug("Recovery service: index lookup inconclusive, scanning",
			"user_id", userID,
			"index_hits", len(candidates),
			"scanned", len(all))
		matched, ok = s.match(plaintext, all)
	}
	if !ok {
		return model.ErrNotFound
	}

	if err := s.store.Consume(ctx, matched.ID); err != nil {
		if errors.Is(err, model.ErrAlreadyUsed) {
			return model.ErrAlreadyUsed
		}
		return fmt.Errorf("failed to consume recovery code: %w", err)
	}

	s.logger.Info("Recovery service: recovery code consumed",
		"code_id", matched.ID,
		"user_id", userID)

	return nil
}

func (s *RecoveryService) match(plaintext string, candidates []model.RecoveryCode) (model.RecoveryCode, bool) {
	for _, c := range candidates {
		if s.hasher.Verify(plaintext, c.CodeHash) {
			return c, true
		}
	}
	return model.RecoveryCode{}, false
}

func randomRecoveryCode() (string, error) {
	group := func() (string, error) {
		buf := make([]byte, recoveryGroupLen)
		for i := range buf {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(recoveryAlphabet))))
			if err != nil {
				return "", err
			}
			buf[i] = recoveryAlphabet[n.Int64()]
		}
		return string(buf), nil
	}

	first, err := group()
	if err != nil {
		return "", err
	}
	second, err := group()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RC-%s-%s", first, second), nil
}
