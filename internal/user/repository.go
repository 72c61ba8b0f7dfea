package user

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user persistence. Implementations exist for MongoDB,
// PostgreSQL (bun) and memory.
type Repository interface {
	// Create inserts u as-is, including its ID and initial tokens
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByToken returns the user with the given id only while it still
	// holds token under access
	GetByToken(ctx context.Context, id, access, token string) (*User, error)
	PushToken(ctx context.Context, id string, token Token) error
	PullToken(ctx context.Context, id, token string) error
}
