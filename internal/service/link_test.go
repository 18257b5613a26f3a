package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/apetrenko/tgfactor/internal/mocks"
	"github.com/apetrenko/tgfactor/internal/model"
	"github.com/apetrenko/tgfactor/internal/secret"
	"github.com/apetrenko/tgfactor/internal/testutil"
)

func newLinkFixture(t *testing.T) (*LinkService, *mocks.LinkTokenStore, *secret.Hasher, *secret.Indexer) {
	t.Helper()
	store := &mocks.LinkTokenStore{}
	hasher := secret.NewHasher()
	indexer, err := secret.NewIndexer("lookup-secret")
	require.NoError(t, err)
	return NewLinkService(store, hasher, indexer, testutil.MakeNoopLogger()), store, hasher, indexer
}

func TestLinkService_Issue(t *testing.T) {
	s, store, hasher, indexer := newLinkFixture(t)

	var created model.LinkToken
	store.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(model.LinkToken)
		created.ID = 7
	}).Return(model.LinkToken{ID: 7, UserID: 3, ExpiresAt: time.Now().Add(LinkTokenTTL)}, nil)

	issued, err := s.Issue(context.Background(), 3, LinkTokenTTL)
	require.NoError(t, err)

	assert.Len(t, issued.Plaintext, 48)
	assert.Equal(t, indexer.Index(issued.Plaintext), created.TokenLookup)
	assert.True(t, hasher.Verify(issued.Plaintext, created.TokenHash))
	assert.False(t, created.Used)
}

func TestLinkService_Consume_ViaIndex(t *testing.T) {
	s, store, hasher, indexer := newLinkFixture(t)

	tokenHash, err := hasher.Hash("sometoken")
	require.NoError(t, err)
	row := model.LinkToken{ID: 5, UserID: 9, TokenHash: tokenHash, TokenLookup: indexer.Index("sometoken")}

	store.On("FindActiveByLookup", mock.Anything, indexer.Index("sometoken")).Return([]model.LinkToken{row}, nil)
	store.On("Consume", mock.Anything, int64(5)).Return(nil)

	userID, err := s.Consume(context.Background(), "sometoken")
	require.NoError(t, err)
	assert.Equal(t, int64(9), userID)
	store.AssertNotCalled(t, "ListActive", mock.Anything)
}

func TestLinkService_Consume_ScanFallback(t *testing.T) {
	// Index finds nothing (e.g. rows written before a key rotation);
	// the scan plus digest verification must locate the same record.
	s, store, hasher, indexer := newLinkFixture(t)

	tokenHash, err := hasher.Hash("sometoken")
	require.NoError(t, err)
	otherHash, err := hasher.Hash("othertoken")
	require.NoError(t, err)

	store.On("FindActiveByLookup", mock.Anything, indexer.Index("sometoken")).Return(nil, nil)
	store.On("ListActive", mock.Anything).Return([]model.LinkToken{
		{ID: 1, UserID: 2, TokenHash: otherHash},
		{ID: 5, UserID: 9, TokenHash: tokenHash},
	}, nil)
	store.On("Consume", mock.Anything, int64(5)).Return(nil)

	userID, err := s.Consume(context.Background(), "sometoken")
	require.NoError(t, err)
	assert.Equal(t, int64(9), userID)
}

func TestLinkService_Consume_NoMatch(t *testing.T) {
	s, store, _, indexer := newLinkFixture(t)

	store.On("FindActiveByLookup", mock.Anything, indexer.Index("unknown")).Return(nil, nil)
	store.On("ListActive", mock.Anything).Return(nil, nil)

	_, err := s.Consume(context.Background(), "unknown")
	require.ErrorIs(t, err, model.ErrNotFound)
	store.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything)
}

func TestLinkService_Consume_LosesRace(t *testing.T) {
	s, store, hasher, indexer := newLinkFixture(t)

	tokenHash, err := hasher.Hash("sometoken")
	require.NoError(t, err)
	row := model.LinkToken{ID: 5, UserID: 9, TokenHash: tokenHash}

	store.On("FindActiveByLookup", mock.Anything, indexer.Index("sometoken")).Return([]model.LinkToken{row}, nil)
	store.On("Consume", mock.Anything, int64(5)).Return(model.ErrAlreadyUsed)

	_, err = s.Consume(context.Background(), "sometoken")
	require.ErrorIs(t, err, model.ErrAlreadyUsed)
}
