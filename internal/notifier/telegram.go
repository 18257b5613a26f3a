// Package notifier delivers messages to users over the Telegram Bot
// API. Delivery is a side effect of the auth flows; callers decide
// whether a failure is fatal.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apetrenko/tgfactor/internal/logger"
)

const defaultBaseURL = "https://api.telegram.org"

// Telegram sends messages through the Bot API sendMessage method.
type Telegram struct {
	client   *http.Client
	baseURL  string
	botToken string
	logger   *logger.Logger
}

// Option configures a Telegram notifier.
type Option func(*Telegram)

// WithBaseURL overrides the Bot API endpoint. Used in tests.
func WithBaseURL(url string) Option {
	return func(t *Telegram) {
		t.baseURL = url
	}
}

// WithHTTPClient overrides the default client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Telegram) {
		t.client = client
	}
}

func NewTelegram(botToken string, logger *logger.Logger, opts ...Option) *Telegram {
	t := &Telegram{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  defaultBaseURL,
		botToken: botToken,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts a text message to the chat.
func (t *Telegram) Send(ctx context.Context, chatID, text string) error {
	if t.botToken == "" {
		return fmt.Errorf("telegram bot token is not configured")
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal send message request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build send message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call telegram api: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("failed to read telegram api response: %w", err)
	}

	var parsed sendMessageResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return fmt.Errorf("failed to decode telegram api response (status %d): %w", resp.StatusCode, err)
	}
	if !parsed.OK {
		return fmt.Errorf("telegram api rejected message (status %d): %s", resp.StatusCode, parsed.Description)
	}

	t.logger.Debug("Telegram notifier: message sent",
		"chat_id", chatID)

	return nil
}
