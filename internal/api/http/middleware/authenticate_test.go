package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/apetrenko/tgfactor/internal/api/http/context"
	"github.com/apetrenko/tgfactor/internal/testutil"
	"github.com/apetrenko/tgfactor/internal/token"
)

func TestAuthenticate_ValidToken(t *testing.T) {
	t.Parallel()

	tokenManager := token.NewJWT("test-secret")
	sessionToken, err := tokenManager.GenerateSessionToken(42)
	require.NoError(t, err)

	ctxMgr := httpctx.NewManager()
	m := NewAuthenticate(tokenManager, ctxMgr, testutil.MakeNoopLogger())

	var gotUserID int64
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = ctxMgr.GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken)
	rec := httptest.NewRecorder()
	m.Handle(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotOK)
	assert.Equal(t, int64(42), gotUserID)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	t.Parallel()

	m := NewAuthenticate(token.NewJWT("test-secret"), httpctx.NewManager(), testutil.MakeNoopLogger())

	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	m.Handle(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	t.Parallel()

	otherManager := token.NewJWT("other-secret")
	sessionToken, err := otherManager.GenerateSessionToken(42)
	require.NoError(t, err)

	m := NewAuthenticate(token.NewJWT("test-secret"), httpctx.NewManager(), testutil.MakeNoopLogger())

	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken)
	rec := httptest.NewRecorder()
	m.Handle(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}
