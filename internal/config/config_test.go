package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PASETO_KEY", testKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, TokenStrategyPaseto, cfg.Auth.Strategy)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.TokenDuration)
	assert.False(t, cfg.Auth.TodoItemsRequireAuth)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Server.TrustProxy)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TOKEN_STRATEGY", "JWT")
	t.Setenv("JWT_SECRET", testKey+testKey)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("SERVER_REQUEST_TIMEOUT", "2")
	t.Setenv("TRUSTED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("TODO_ITEMS_REQUIRE_AUTH", "true")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, TokenStrategyJWT, cfg.Auth.Strategy)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.TrustedOrigins)
	assert.True(t, cfg.Auth.TodoItemsRequireAuth)
	assert.True(t, cfg.Server.TrustProxy)
	assert.Contains(t, cfg.Database.ConnectionString(), "dbname=todoapp")
}

func TestLoadRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"short paseto key", map[string]string{"PASETO_KEY": "short"}},
		{"short jwt secret", map[string]string{"TOKEN_STRATEGY": "jwt", "JWT_SECRET": "short"}},
		{"unknown strategy", map[string]string{"TOKEN_STRATEGY": "saml", "PASETO_KEY": testKey}},
		{"unknown driver", map[string]string{"DB_DRIVER": "cassandra", "PASETO_KEY": testKey}},
		{"zero rate limit", map[string]string{"RATE_LIMIT_REQUESTS": "0", "PASETO_KEY": testKey}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetDurationEnvFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "soon")
	assert.Equal(t, time.Minute, getDurationEnv("SOME_TIMEOUT", time.Minute))
}
