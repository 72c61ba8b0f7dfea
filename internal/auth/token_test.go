package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func tokenServices(t *testing.T) map[string]TokenService {
	t.Helper()

	pasetoService, err := NewPasetoService(testKey)
	require.NoError(t, err)
	jwtService, err := NewJWTService(testKey)
	require.NoError(t, err)

	return map[string]TokenService{
		"paseto": pasetoService,
		"jwt":    jwtService,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	for name, svc := range tokenServices(t) {
		t.Run(name, func(t *testing.T) {
			token, err := svc.CreateToken("5f1d7f6b2c3e4a0012345678", "auth", time.Hour)
			require.NoError(t, err)

			claims, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, "5f1d7f6b2c3e4a0012345678", claims.UserID)
			assert.Equal(t, "auth", claims.Access)
			assert.NotEmpty(t, claims.ID)
			assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
		})
	}
}

func TestTokensAreUnique(t *testing.T) {
	for name, svc := range tokenServices(t) {
		t.Run(name, func(t *testing.T) {
			a, err := svc.CreateToken("5f1d7f6b2c3e4a0012345678", "auth", time.Hour)
			require.NoError(t, err)
			b, err := svc.CreateToken("5f1d7f6b2c3e4a0012345678", "auth", time.Hour)
			require.NoError(t, err)
			assert.NotEqual(t, a, b)
		})
	}
}

func TestTokenExpired(t *testing.T) {
	for name, svc := range tokenServices(t) {
		t.Run(name, func(t *testing.T) {
			token, err := svc.CreateToken("5f1d7f6b2c3e4a0012345678", "auth", -time.Minute)
			require.NoError(t, err)

			_, err = svc.VerifyToken(token)
			assert.ErrorIs(t, err, ErrExpiredToken)
		})
	}
}

func TestTokenRejectsGarbageAndForeignKeys(t *testing.T) {
	otherKey := []byte(strings.Repeat("z", 32))
	otherPaseto, err := NewPasetoService(otherKey)
	require.NoError(t, err)
	otherJWT, err := NewJWTService(otherKey)
	require.NoError(t, err)
	foreign := map[string]TokenService{"paseto": otherPaseto, "jwt": otherJWT}

	for name, svc := range tokenServices(t) {
		t.Run(name, func(t *testing.T) {
			_, err := svc.VerifyToken("not-a-token")
			assert.ErrorIs(t, err, ErrInvalidToken)

			token, err := foreign[name].CreateToken("5f1d7f6b2c3e4a0012345678", "auth", time.Hour)
			require.NoError(t, err)
			_, err = svc.VerifyToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenServiceKeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("short"))
	assert.Error(t, err)
	_, err = NewJWTService([]byte("short"))
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("123abc")
	require.NoError(t, err)

	assert.NotEqual(t, "123abc", hash)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.True(t, verifyPassword(hash, "123abc"))
	assert.False(t, verifyPassword(hash, "123abd"))
	assert.False(t, verifyPassword("plain", "plain"))

	again, err := hashPassword("123abc")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salts must differ")
}
