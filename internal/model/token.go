package model

// TokenManager signs and validates session credentials.
type TokenManager interface {
	GenerateSessionToken(userID int64) (string, error)
	ParseSessionToken(token string) (int64, error)
}
