package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/apetrenko/tgfactor/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to HTTP statuses. Challenge rejection
// reasons never cross this boundary individually: callers see a single
// invalid-or-expired outcome.
func writeError(w http.ResponseWriter, err error) {
	var status int
	var message string

	switch {
	case errors.Is(err, model.ErrInvalidChallenge):
		status, message = http.StatusBadRequest, "invalid or expired challenge"
	case errors.Is(err, model.ErrUserExists):
		status, message = http.StatusConflict, "user already exists"
	case errors.Is(err, model.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, model.ErrRateLimited):
		status, message = http.StatusTooManyRequests, "too many attempts"
	case errors.Is(err, model.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	default:
		status, message = http.StatusInternalServerError, "internal server error"
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
