package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-todo-api/internal/logging"
	"github.com/redmonkez12/go-todo-api/internal/user"
)

func newTestService(t *testing.T) (*Service, *user.MemoryRepository) {
	t.Helper()

	tokens, err := NewPasetoService(testKey)
	require.NoError(t, err)

	repo := user.NewMemoryRepository()
	return NewService(repo, tokens, logging.Discard(), time.Hour), repo
}

func TestSignup(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	u, token, err := svc.Signup(ctx, "  Example@Example.com ", "123abc")
	require.NoError(t, err)
	assert.Equal(t, "example@example.com", u.Email)
	assert.NotEmpty(t, token)

	stored, err := repo.GetByEmail(ctx, "example@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "123abc", stored.PasswordHash)
	assert.True(t, stored.HasToken(user.AccessAuth, token))

	authed, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, authed.ID)
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"missing email", "", "123abc", ErrEmailRequired},
		{"bad email", "not-an-email", "123abc", ErrInvalidEmailFormat},
		{"display name form", "Andrew <andrew@example.com>", "123abc", ErrInvalidEmailFormat},
		{"missing password", "a@example.com", "", ErrPasswordRequired},
		{"short password", "a@example.com", "12345", ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(t)

			_, _, err := svc.Signup(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, tt.want)

			_, err = repo.GetByEmail(context.Background(), "a@example.com")
			assert.ErrorIs(t, err, user.ErrNotFound, "nothing may be stored")
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, _, err := svc.Signup(ctx, "dup@example.com", "123abc")
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, "DUP@example.com", "456def")
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	created, first, err := svc.Signup(ctx, "login@example.com", "userOnePass")
	require.NoError(t, err)

	u, second, err := svc.Login(ctx, "login@example.com", "userOnePass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.NotEqual(t, first, second)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Tokens, 2)

	_, _, err = svc.Login(ctx, "login@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "userOnePass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Well-signed but never stored on a user
	tokens, err := NewPasetoService(testKey)
	require.NoError(t, err)
	orphan, err := tokens.CreateToken(user.NewID(), user.AccessAuth, time.Hour)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, orphan)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	u, token, err := svc.Signup(ctx, "bye@example.com", "123abc")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, u.ID, token))

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
