package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/apetrenko/tgfactor/internal/api/http/context"
	"github.com/apetrenko/tgfactor/internal/mocks"
	"github.com/apetrenko/tgfactor/internal/model"
	"github.com/apetrenko/tgfactor/internal/secret"
	"github.com/apetrenko/tgfactor/internal/service"
	"github.com/apetrenko/tgfactor/internal/testutil"
	"github.com/apetrenko/tgfactor/internal/token"
)

type pingerStub struct{ err error }

func (p pingerStub) Ping(context.Context) error { return p.err }

func newTestHandler(t *testing.T, pinger Pinger) (http.Handler, *mocks.UserStore, *mocks.BindingStore) {
	t.Helper()

	userStore := &mocks.UserStore{}
	bindingStore := &mocks.BindingStore{}
	hasher := secret.NewHasher()
	indexer, err := secret.NewIndexer("lookup-secret")
	require.NoError(t, err)
	log := testutil.MakeNoopLogger()
	tokenManager := token.NewJWT("test-secret")

	authService := service.NewAuth(
		userStore,
		bindingStore,
		hasher,
		service.NewChallengeService(&mocks.ChallengeStore{}, hasher, log),
		service.NewLinkService(&mocks.LinkTokenStore{}, hasher, indexer, log),
		service.NewRecoveryService(&mocks.RecoveryCodeStore{}, hasher, indexer, log),
		service.NewBindingService(bindingStore, log),
		tokenManager,
		&mocks.Notifier{},
		log,
		"",
		false,
	)

	r := New(authService, tokenManager, httpctx.NewManager(), nil, 10, time.Minute, pinger, log)
	return r.Register(), userStore, bindingStore
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t, pingerStub{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_Healthz_StorageDown(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t, pingerStub{err: assert.AnError})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_RegisterRouteWired(t *testing.T) {
	t.Parallel()

	h, userStore, bindingStore := newTestHandler(t, pingerStub{})

	userStore.On("Create", mock.Anything, "alice@example.com", "alice", mock.Anything).
		Return(model.User{ID: 1, Email: "alice@example.com", Username: "alice", IsActive: true}, nil)
	bindingStore.On("EnsurePlaceholder", mock.Anything, int64(1)).Return(nil)

	body := []byte(`{"email":"alice@example.com","username":"alice","password":"s3cret"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouter_LinkInitiateRequiresBearer(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t, pingerStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/telegram/link/initiate", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t, pingerStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
