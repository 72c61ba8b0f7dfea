package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
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

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	tokens, err := auth.NewPasetoService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	logger := logging.Discard()
	authService := auth.NewService(user.NewMemoryRepository(), tokens, logger, time.Hour)
	todoService := todo.NewService(todo.NewMemoryRepository(), nil, logger)

	cfg := &config.Config{Server: config.ServerConfig{Env: "test", RequestTimeout: 5 * time.Second}}
	router := httpServer.NewRouter(cfg,
		auth.NewHandler(authService, nil),
		auth.NewMiddleware(authService),
		todo.NewHandler(todoService),
		logger,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSession(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	c := New(srv.URL+"/", "")

	_, err := c.Me(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	u, err := c.Signup(ctx, "cli@example.com", "123abc")
	require.NoError(t, err)
	assert.Equal(t, "cli@example.com", u.Email)
	require.NotEmpty(t, c.Token)
	signupToken := c.Token

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)

	_, err = c.Signup(ctx, "cli@example.com", "123abc")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "EMAIL_ALREADY_EXISTS", apiErr.Code)

	fresh := New(srv.URL, "")
	_, err = fresh.Login(ctx, "cli@example.com", "wrong1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = fresh.Login(ctx, "cli@example.com", "123abc")
	require.NoError(t, err)
	assert.NotEqual(t, signupToken, fresh.Token)

	require.NoError(t, fresh.Logout(ctx))
	assert.Empty(t, fresh.Token)

	// The signup token is unaffected by the other session's logout
	_, err = c.Me(ctx)
	assert.NoError(t, err)
}

func TestClientTodos(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	c := New(srv.URL, "")

	_, err := c.Signup(ctx, "todos@example.com", "123abc")
	require.NoError(t, err)

	created, err := c.CreateTodo(ctx, "  Walk the dog ")
	require.NoError(t, err)
	assert.Equal(t, "Walk the dog", created.Text)

	_, err = c.CreateTodo(ctx, " ")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	list, err := c.ListTodos(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	done := true
	updated, err := c.UpdateTodo(ctx, created.ID, todo.UpdateRequest{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.NotNil(t, updated.CompletedAt)

	got, err := c.GetTodo(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.CompletedAt, got.CompletedAt)

	_, err = c.GetTodo(ctx, "not-an-id")
	assert.ErrorIs(t, err, ErrNotFound)

	removed, err := c.DeleteTodo(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, removed.ID)

	_, err = c.DeleteTodo(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
