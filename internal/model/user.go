package model

import (
	"context"
	"time"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	Create(ctx context.Context, email, username, passwordHash string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByIdentifier(ctx context.Context, identifier string) (User, error)
}

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
