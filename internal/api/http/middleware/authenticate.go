package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/apetrenko/tgfactor/internal/logger"
	"github.com/apetrenko/tgfactor/internal/model"
)

// TokenParser resolves user IDs from session tokens.
type TokenParser interface {
	ParseSessionToken(tokenString string) (int64, error)
}

// Authenticate validates bearer tokens and injects the user ID into
// the request context.
type Authenticate struct {
	tokenParser    TokenParser
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokenParser TokenParser, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenParser: tokenParser, contextManager: contextManager, logger: logger}
}

// Handle parses the Authorization header and passes the request on
// with the user ID in context, or rejects it with 401.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tokenString string
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			m.reject(w, "missing authorization token")
			return
		}

		userID, err := m.tokenParser.ParseSessionToken(tokenString)
		if err != nil || userID == 0 {
			m.logger.Debug("Authenticate middleware: token rejected",
				"path", r.URL.Path)
			m.reject(w, "invalid authorization token")
			return
		}

		ctx := m.contextManager.SetUserIDToContext(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Authenticate) reject(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
