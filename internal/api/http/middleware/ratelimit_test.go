package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apetrenko/tgfactor/internal/testutil"
)

func newLimiter(t *testing.T, maxAttempts int) (*RateLimit, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimit(client, maxAttempts, time.Minute, testutil.MakeNoopLogger()), mr
}

func doLogin(m *RateLimit, next http.Handler, remoteAddr, identifier string) *httptest.ResponseRecorder {
	body := []byte(`{"identifier":"` + identifier + `","password":"pw"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	m.Handle(next).ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	m, _ := newLimiter(t, 3)

	var calls int
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		rec := doLogin(m, next, "10.0.0.1:1234", "alice")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 3, calls)
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	m, _ := newLimiter(t, 3)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		doLogin(m, next, "10.0.0.1:1234", "alice")
	}
	rec := doLogin(m, next, "10.0.0.1:1234", "alice")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimit_IdentifierCounterSpansIPs(t *testing.T) {
	// Rotating source addresses must not reset the per-identifier
	// budget.
	m, _ := newLimiter(t, 3)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		doLogin(m, next, "10.0.0.1:1234", "alice")
	}
	rec := doLogin(m, next, "10.0.0.99:1234", "alice")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimit_WindowExpires(t *testing.T) {
	m, mr := newLimiter(t, 1)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, doLogin(m, next, "10.0.0.1:1234", "alice").Code)
	assert.Equal(t, http.StatusTooManyRequests, doLogin(m, next, "10.0.0.1:1234", "alice").Code)

	mr.FastForward(2 * time.Minute)

	assert.Equal(t, http.StatusOK, doLogin(m, next, "10.0.0.1:1234", "alice").Code)
}

func TestRateLimit_FailsOpenOnRedisOutage(t *testing.T) {
	m, mr := newLimiter(t, 1)
	mr.Close()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := doLogin(m, next, "10.0.0.1:1234", "alice")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_BodyIsRestored(t *testing.T) {
	m, _ := newLimiter(t, 3)

	var gotBody []byte
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	})

	doLogin(m, next, "10.0.0.1:1234", "alice")
	assert.JSONEq(t, `{"identifier":"alice","password":"pw"}`, string(gotBody))
}
