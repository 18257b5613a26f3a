package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/apetrenko/tgfactor/internal/logger"
	"github.com/apetrenko/tgfactor/internal/model"
	"github.com/apetrenko/tgfactor/internal/service"
)

// AuthService defines registration, login and OTP verification
// operations.
type AuthService interface {
	Register(ctx context.Context, email, username, password string) (model.User, error)
	Login(ctx context.Context, identifier, password string) (service.ChallengeResult, error)
	InitiateOTP(ctx context.Context, identifier, password string, challengeContext model.ChallengeContext) (service.ChallengeResult, error)
	VerifyOTP(ctx context.Context, challengeID uuid.UUID, code string) (string, model.User, error)
}

// Auth handles HTTP endpoints for registration and OTP login.
type Auth struct {
	authService AuthService
	logger      *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, logger *logger.Logger) *Auth {
	return &Auth{authService: authService, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Register creates a user account.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email, username and password are required"})
		return
	}

	h.logger.Debug("Auth handler: processing register request",
		"email", req.Email)

	user, err := h.authService.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		h.logger.Error("Auth handler: register failed",
			"email", req.Email,
			"error", err.Error())
		writeError(w, err)
		return
	}

	h.logger.Info("Auth handler: user registered",
		"user_id", user.ID)

	writeJSON(w, http.StatusCreated, userResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type challengeResponse struct {
	ChallengeID string    `json:"challenge_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	Delivered   bool      `json:"delivered"`
	DebugCode   string    `json:"debug_code,omitempty"`
}

// Login validates the password and issues a login OTP challenge.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Identifier == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "identifier and password are required"})
		return
	}

	h.logger.Debug("Auth handler: processing login request",
		"identifier", req.Identifier)

	result, err := h.authService.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.logger.Error("Auth handler: login failed",
			"identifier", req.Identifier,
			"error", err.Error())
		writeError(w, err)
		return
	}

	h.logger.Info("Auth handler: login challenge issued",
		"challenge_id", result.ChallengeID,
		"delivered", result.Delivered)

	writeJSON(w, http.StatusOK, challengeResponse{
		ChallengeID: result.ChallengeID.String(),
		ExpiresAt:   result.ExpiresAt,
		Delivered:   result.Delivered,
		DebugCode:   result.DebugCode,
	})
}

type initiateOTPRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Context    string `json:"context"`
}

// InitiateOTP issues an OTP challenge for a caller-chosen context.
func (h *Auth) InitiateOTP(w http.ResponseWriter, r *http.Request) {
	var req initiateOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	challengeContext := model.ChallengeContext(req.Context)
	if req.Context == "" {
		challengeContext = model.ContextSensitive
	}
	if !challengeContext.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown challenge context"})
		return
	}
	if req.Identifier == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "identifier and password are required"})
		return
	}

	h.logger.Debug("Auth handler: processing otp initiate request",
		"identifier", req.Identifier,
		"context", string(challengeContext))

	result, err := h.authService.InitiateOTP(r.Context(), req.Identifier, req.Password, challengeContext)
	if err != nil {
		h.logger.Error("Auth handler: otp initiate failed",
			"identifier", req.Identifier,
			"error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challengeResponse{
		ChallengeID: result.ChallengeID.String(),
		ExpiresAt:   result.ExpiresAt,
		Delivered:   result.Delivered,
		DebugCode:   result.DebugCode,
	})
}

type verifyOTPRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// VerifyOTP consumes a challenge and returns a session token.
func (h *Auth) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	challengeID, err := uuid.Parse(req.ChallengeID)
	if err != nil {
		// An unparseable ID is indistinguishable from an unknown one.
		writeError(w, model.ErrInvalidChallenge)
		return
	}

	h.logger.Debug("Auth handler: processing otp verify request",
		"challenge_id", challengeID)

	sessionToken, user, err := h.authService.VerifyOTP(r.Context(), challengeID, req.Code)
	if err != nil {
		h.logger.Error("Auth handler: otp verify failed",
			"challenge_id", challengeID,
			"error", err.Error())
		writeError(w, err)
		return
	}

	h.logger.Info("Auth handler: otp verified",
		"user_id", user.ID)

	writeJSON(w, http.StatusOK, sessionResponse{
		Token: sessionToken,
		User: userResponse{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
		},
	})
}
