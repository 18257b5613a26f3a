package model

import (
	"context"
	"time"
)

// LinkTokenStore persists telegram link tokens. FindActiveByLookup and
// ListActive return only unused, unexpired rows; Consume follows the
// same conditional-update contract as ChallengeStore.Consume.
type LinkTokenStore interface {
	Create(ctx context.Context, token LinkToken) (LinkToken, error)
	FindActiveByLookup(ctx context.Context, lookup string) ([]LinkToken, error)
	ListActive(ctx context.Context) ([]LinkToken, error)
	Consume(ctx context.Context, id int64) error
}

// LinkToken is a single-use secret binding a link request to a user.
// TokenHash is the salted verification digest, TokenLookup the keyed
// deterministic index.
type LinkToken struct {
	ID          int64
	UserID      int64
	TokenHash   string
	TokenLookup string
	ExpiresAt   time.Time
	Used        bool
	CreatedAt   time.Time
}
