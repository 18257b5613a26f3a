package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/apetrenko/tgfactor/internal/model"
)

func TestWriteError_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{model.ErrInvalidChallenge, http.StatusBadRequest},
		{model.ErrUserExists, http.StatusConflict},
		{model.ErrInvalidCredentials, http.StatusUnauthorized},
		{model.ErrRateLimited, http.StatusTooManyRequests},
		{model.ErrNotFound, http.StatusNotFound},
		{model.ErrBindingConflict, http.StatusInternalServerError},
		{model.ErrNotConfigured, http.StatusInternalServerError},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, tt.err)
		assert.Equal(t, tt.want, rec.Code, "error %v", tt.err)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestWriteError_NeverLeaksRejectionReason(t *testing.T) {
	t.Parallel()

	// The four lifecycle rejection reasons are normalized before they
	// reach a handler; if one leaks through unwrapped it must still not
	// reveal itself in the response body.
	for _, err := range []error{model.ErrAlreadyUsed, model.ErrExpired, model.ErrInvalidSecret} {
		rec := httptest.NewRecorder()
		writeError(rec, err)
		assert.NotContains(t, rec.Body.String(), err.Error())
	}
}
