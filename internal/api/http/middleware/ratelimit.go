package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apetrenko/tgfactor/internal/logger"
)

// RateLimit applies a fixed-window counter to credential-guessing
// endpoints, keyed by the submitted identifier and by the client IP.
// Either counter crossing the limit rejects the request. A redis
// outage fails open: limiting is protection, not availability.
type RateLimit struct {
	redis       *redis.Client
	maxAttempts int64
	window      time.Duration
	logger      *logger.Logger
}

// NewRateLimit creates a new RateLimit middleware instance.
func NewRateLimit(redisClient *redis.Client, maxAttempts int, window time.Duration, logger *logger.Logger) *RateLimit {
	return &RateLimit{
		redis:       redisClient,
		maxAttempts: int64(maxAttempts),
		window:      window,
		logger:      logger,
	}
}

type identifiedRequest struct {
	Identifier string `json:"identifier"`
}

// Handle extracts the identifier from the JSON body, increments both
// counters and rejects with 429 when either is over the limit. The
// body is restored for the next handler.
func (m *RateLimit) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var req identifiedRequest
		_ = json.Unmarshal(body, &req)

		keys := []string{"rl:ip:" + clientIP(r)}
		if req.Identifier != "" {
			keys = append(keys, "rl:id:"+req.Identifier)
		}

		for _, key := range keys {
			over, err := m.increment(r, key)
			if err != nil {
				m.logger.Error("RateLimit middleware: redis unavailable, failing open",
					"error", err.Error())
				break
			}
			if over {
				m.logger.Info("RateLimit middleware: request rejected",
					"key", key,
					"path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many attempts"})
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimit) increment(r *http.Request, key string) (bool, error) {
	ctx := r.Context()

	count, err := m.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment counter: %w", err)
	}
	if count == 1 {
		if err := m.redis.Expire(ctx, key, m.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set counter expiry: %w", err)
		}
	}
	return count > m.maxAttempts, nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
