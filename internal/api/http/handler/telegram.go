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

// TelegramService defines link, change and recovery operations for
// telegram bindings.
type TelegramService interface {
	InitiateLink(ctx context.Context, userID int64) (service.LinkStart, error)
	CompleteLink(ctx context.Context, token, chatID, chatUsername string) (service.LinkResult, error)
	InitiateOTP(ctx context.Context, identifier, password string, challengeContext model.ChallengeContext) (service.ChallengeResult, error)
	ConfirmTelegramChange(ctx context.Context, challengeID uuid.UUID, code string) (int64, error)
	Recover(ctx context.Context, identifier, recoveryCode string) (int64, error)
}

// Telegram handles HTTP endpoints for telegram binding management.
type Telegram struct {
	telegramService TelegramService
	contextManager  model.ContextManager
	logger          *logger.Logger
}

// NewTelegram creates a new Telegram handler.
func NewTelegram(telegramService TelegramService, contextManager model.ContextManager, logger *logger.Logger) *Telegram {
	return &Telegram{
		telegramService: telegramService,
		contextManager:  contextManager,
		logger:          logger,
	}
}

type linkStartResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	LinkURL   string    `json:"link_url,omitempty"`
}

// InitiateLink issues a link token for the authenticated user.
func (h *Telegram) InitiateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	h.logger.Debug("Telegram handler: processing link initiate request",
		"user_id", userID)

	start, err := h.telegramService.InitiateLink(r.Context(), userID)
	if err != nil {
		h.logger.Error("Telegram handler: link initiate failed",
			"user_id", userID,
			"error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, linkStartResponse{
		Token:     start.Token,
		ExpiresAt: start.ExpiresAt,
		LinkURL:   start.LinkURL,
	})
}

type completeLinkRequest struct {
	Token        string `json:"token"`
	ChatID       string `json:"chat_id"`
	ChatUsername string `json:"chat_username"`
}

type linkResultResponse struct {
	UserID        int64    `json:"user_id"`
	RecoveryCodes []string `json:"recovery_codes,omitempty"`
}

// CompleteLink consumes a link token and binds the chat.
func (h *Telegram) CompleteLink(w http.ResponseWriter, r *http.Request) {
	var req completeLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Token == "" || req.ChatID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "token and chat_id are required"})
		return
	}

	h.logger.Debug("Telegram handler: processing link complete request",
		"chat_id", req.ChatID)

	result, err := h.telegramService.CompleteLink(r.Context(), req.Token, req.ChatID, req.ChatUsername)
	if err != nil {
		h.logger.Error("Telegram handler: link complete failed",
			"chat_id", req.ChatID,
			"error", err.Error())
		writeError(w, err)
		return
	}

	h.logger.Info("Telegram handler: chat linked",
		"user_id", result.UserID,
		"chat_id", req.ChatID)

	writeJSON(w, http.StatusOK, linkResultResponse{
		UserID:        result.UserID,
		RecoveryCodes: result.RecoveryCodes,
	})
}

// InitiateChange re-authenticates with the password and issues a
// telegram_change challenge delivered to the current chat.
func (h *Telegram) InitiateChange(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Identifier == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "identifier and password are required"})
		return
	}

	h.logger.Debug("Telegram handler: processing change initiate request",
		"identifier", req.Identifier)

	result, err := h.telegramService.InitiateOTP(r.Context(), req.Identifier, req.Password, model.ContextTelegramChange)
	if err != nil {
		h.logger.Error("Telegram handler: change initiate failed",
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

type userIDResponse struct {
	UserID int64 `json:"user_id"`
}

// ConfirmChange consumes a telegram_change challenge and revokes the
// current binding.
func (h *Telegram) ConfirmChange(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	challengeID, err := uuid.Parse(req.ChallengeID)
	if err != nil {
		writeError(w, model.ErrInvalidChallenge)
		return
	}

	h.logger.Debug("Telegram handler: processing change confirm request",
		"challenge_id", challengeID)

	userID, err := h.telegramService.ConfirmTelegramChange(r.Context(), challengeID, req.Code)
	if err != nil {
		h.logger.Error("Telegram handler: change confirm failed",
			"challenge_id", challengeID,
			"error", err.Error())
		writeError(w, err)
		return
	}

	h.logger.Info("Telegram handler: binding change confirmed",
		"user_id", userID)

	writeJSON(w, http.StatusOK, userIDResponse{UserID: userID})
}

type recoverRequest struct {
	Identifier   string `json:"identifier"`
	RecoveryCode string `json:"recovery_code"`
}

// RecoverVerify consumes a recovery code and revokes the binding.
func (h *Telegram) RecoverVerify(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Identifier == "" || req.RecoveryCode == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "identifier and recovery_code are required"})
		return
	}

	h.logger.Debug("Telegram handler: processing recover verify request",
		"identifier", req.Identifier)

	userID, err := h.telegramService.Recover(r.Context(), req.Identifier, req.RecoveryCode)
	if err != nil {
		h.logger.Error("Telegram handler: recover verify failed",
			"identifier", req.Identifier,
			"error", err.Error())
		writeError(w, err)
		return
	}

	h.logger.Info("Telegram handler: account recovered",
		"user_id", userID)

	writeJSON(w, http.StatusOK, userIDResponse{UserID: userID})
}
