package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-todo-api/internal/auth"
	"github.com/redmonkez12/go-todo-api/internal/config"
	httpServer "github.com/redmonkez12/go-todo-api/internal/http"
	"github.com/redmonkez12/go-todo-api/internal/logging"
	"github.com/redmonkez12/go-todo-api/internal/todo"
	"github.com/redmonkez12/go-todo-api/internal/user"
)

func startServer(t *testing.T) string {
	t.Helper()

	tokens, err := auth.NewPasetoService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	logger := logging.Discard()
	authService := auth.NewService(user.NewMemoryRepository(), tokens, logger, time.Hour)
	cfg := &config.Config{Server: config.ServerConfig{Env: "test", RequestTimeout: 5 * time.Second}}
	router := httpServer.NewRouter(cfg,
		auth.NewHandler(authService, nil),
		auth.NewMiddleware(authService),
		todo.NewHandler(todo.NewService(todo.NewMemoryRepository(), nil, logger)),
		logger,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv.URL
}

func execute(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCLIFlow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TODO_TOKEN", "")
	server := startServer(t)

	out, err := execute(t, server, "signup", "--email", "cli@example.com", "--password", "123abc")
	require.NoError(t, err)
	assert.Contains(t, out, "cli@example.com")

	saved, err := os.ReadFile(filepath.Join(home, tokenFileName))
	require.NoError(t, err)
	assert.NotEmpty(t, bytes.TrimSpace(saved))

	out, err = execute(t, server, "add", "Buy", "milk")
	require.NoError(t, err)
	assert.Contains(t, out, "Buy milk")

	out, err = execute(t, server, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "1 open, 1 total")

	out, err = execute(t, server, "me")
	require.NoError(t, err)
	assert.Contains(t, out, "cli@example.com")

	_, err = execute(t, server, "done", "123")
	assert.Error(t, err)

	_, err = execute(t, server, "logout")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(home, tokenFileName))
	assert.True(t, os.IsNotExist(err))

	_, err = execute(t, server, "list")
	assert.Error(t, err)
}

func TestLoadTokenPrefersEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TODO_TOKEN", "from-env")

	require.NoError(t, saveToken("from-file"))
	token, err := loadToken()
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)

	t.Setenv("TODO_TOKEN", "")
	token, err = loadToken()
	require.NoError(t, err)
	assert.Equal(t, "from-file", token)
}
