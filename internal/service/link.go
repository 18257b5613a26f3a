package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/apetrenko/tgfactor/internal/logger"
	"github.com/apetrenko/tgfactor/internal/model"
)

const linkTokenBytes = 24

// LinkService issues and consumes telegram link tokens. Tokens carry
// both a salted digest for verification and a keyed deterministic
// lookup digest so consumption does not scan every outstanding token.
type LinkService struct {
	store   model.LinkTokenStore
	hasher  Hasher
	indexer Indexer
	logger  *logger.Logger
}

func NewLinkService(store model.LinkTokenStore, hasher Hasher, indexer Indexer, logger *logger.Logger) *LinkService {
	return &LinkService{store: store, hasher: hasher, indexer: indexer, logger: logger}
}

// IssuedLinkToken is the caller-facing result of Issue. Plaintext is
// returned exactly once and never persisted.
type IssuedLinkToken struct {
	Plaintext string
	ExpiresAt time.Time
}

// Issue creates a link token for the user.
func (s *LinkService) Issue(ctx context.Context, userID int64, ttl time.Duration) (IssuedLinkToken, error) {
	raw := make([]byte, linkTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return IssuedLinkToken{}, fmt.Errorf("failed to generate link token: %w", err)
	}
	plaintext := hex.EncodeToString(raw)

	tokenHash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return IssuedLinkToken{}, fmt.Errorf("failed to hash link token: %w", err)
	}

	token := model.LinkToken{
		UserID:      userID,
		TokenHash:   tokenHash,
		TokenLookup: s.indexer.Index(plaintext),
		ExpiresAt:   time.Now().Add(ttl),
		Used:        false,
	}

	saved, err := s.store.Create(ctx, token)
	if err != nil {
		return IssuedLinkToken{}, fmt.Errorf("failed to create link token: %w", err)
	}

	s.logger.Info("Link service: link token issued",
		"token_id", saved.ID,
		"user_id", userID)

	return IssuedLinkToken{Plaintext: plaintext, ExpiresAt: saved.ExpiresAt}, nil
}

// Consume locates the matching unused, unexpired token and consumes
// it, returning the owning user ID. Candidates come from the
// deterministic index; when the index yields zero or several rows the
// search degrades to a linear scan over all active tokens. Either way
// a candidate only counts after the salted digest verifies.
func (s *LinkService) Consume(ctx context.Context, plaintext string) (int64, error) {
	candidates, err := s.store.FindActiveByLookup(ctx, s.indexer.Index(plaintext))
	if err != nil {
		return 0, fmt.Errorf("failed to look up link token: %w", err)
	}

	matched, ok := s.match(plaintext, candidates)
	if !ok && len(candidates) != 1 {
		all, err := s.store.ListActive(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to scan link tokens: %w", err)
		}
		s.logger.Debug("Link service: index lookup inconclusive, scanning",
			"index_hits", len(candidates),
			"scanned", len(all))
		matched, ok = s.match(plaintext, all)
	}
	if !ok {
		return 0, model.ErrNotFound
	}

	if err := s.store.Consume(ctx, matched.ID); err != nil {
		if errors.Is(err, model.ErrAlreadyUsed) {
			return 0, model.ErrAlreadyUsed
		}
		return 0, fmt.Errorf("failed to consume link token: %w", err)
	}

	s.logger.Info("Link service: link token consumed",
		"token_id", matched.ID,
		"user_id", matched.UserID)

	return matched.UserID, nil
}

func (s *LinkService) match(plaintext string, candidates []model.LinkToken) (model.LinkToken, bool) {
	for _, t := range candidates {
		if s.hasher.Verify(plaintext, t.TokenHash) {
			return t, true
		}
	}
	return model.LinkToken{}, false
}
