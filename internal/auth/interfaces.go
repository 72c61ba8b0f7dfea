package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redmonkez12/go-todo-api/internal/user"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenClaims represents the claims carried by an issued token
type TokenClaims struct {
	ID        string    `json:"jti"`
	UserID    string    `json:"user_id"`
	Access    string    `json:"access"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenService defines the interface for token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(userID, access string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// Authenticator resolves a presented token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.User, error)
}

// RateLimiter throttles unauthenticated endpoints per client IP.
// AllowIPRequestWithPurpose counts the request and reports whether it is
// within budget.
type RateLimiter interface {
	AllowIPRequestWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
}
