package model

import "context"

// Notifier delivers a text message to a telegram chat. Callers treat
// delivery failure as non-fatal: flows stay usable through the issuing
// side's direct response.
type Notifier interface {
	Send(ctx context.Context, chatID, text string) error
}
