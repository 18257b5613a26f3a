package model

import "errors"

var (
	// ErrNotFound means no record matched the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyUsed means the secret was consumed before this attempt.
	ErrAlreadyUsed = errors.New("secret already used")
	// ErrExpired means the secret's TTL has elapsed.
	ErrExpired = errors.New("secret expired")
	// ErrInvalidSecret means the presented plaintext did not match the
	// stored digest.
	ErrInvalidSecret = errors.New("secret mismatch")

	// ErrInvalidChallenge is the normalized caller-facing outcome for
	// NotFound, AlreadyUsed, Expired and InvalidSecret. The distinction
	// never crosses the API boundary.
	ErrInvalidChallenge = errors.New("invalid or expired challenge")

	// ErrBindingConflict means a chat_id uniqueness violation survived
	// the coordinator's single retry.
	ErrBindingConflict = errors.New("telegram binding conflict")
	// ErrNotConfigured means a required keying secret is absent. Hard
	// startup error, never a silent fallback.
	ErrNotConfigured = errors.New("keying secret not configured")

	// ErrUserExists means the email or username is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials covers unknown user, inactive user and
	// password mismatch without distinguishing them.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRateLimited means the caller exceeded the attempt budget.
	ErrRateLimited = errors.New("too many requests")
)
