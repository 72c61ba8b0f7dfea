package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-todo-api/internal/auth"
	"github.com/redmonkez12/go-todo-api/internal/httputil"
	"github.com/redmonkez12/go-todo-api/internal/todo"
)

var (
	ErrUnauthorized       = errors.New("not logged in or token revoked")
	ErrNotFound           = errors.New("todo not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// APIError is a non-2xx response that carried an error body
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// Client talks to the todo API. Token is sent in the x-auth header when set.
type Client struct {
	baseURL    string
	httpClient *http.Client
	Token      string
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		Token:      token,
	}
}

// Signup creates an account and keeps the returned token
func (c *Client) Signup(ctx context.Context, email, password string) (*auth.UserResponse, error) {
	return c.credentials(ctx, "/users", email, password)
}

// Login issues a new token for an existing account and keeps it
func (c *Client) Login(ctx context.Context, email, password string) (*auth.UserResponse, error) {
	u, err := c.credentials(ctx, "/users/login", email, password)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
		return nil, ErrInvalidCredentials
	}
	return u, err
}

func (c *Client) credentials(ctx context.Context, path, email, password string) (*auth.UserResponse, error) {
	var u auth.UserResponse
	header, err := c.do(ctx, http.MethodPost, path, auth.CredentialsRequest{Email: email, Password: password}, &u)
	if err != nil {
		return nil, err
	}

	token := header.Get(auth.HeaderName)
	if token == "" {
		return nil, fmt.Errorf("server did not return an %s header", auth.HeaderName)
	}
	c.Token = token
	return &u, nil
}

// Logout revokes the current token
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodDelete, "/users/me/token", nil, nil); err != nil {
		return err
	}
	c.Token = ""
	return nil
}

// Me returns the account the token belongs to
func (c *Client) Me(ctx context.Context) (*auth.UserResponse, error) {
	var u auth.UserResponse
	if _, err := c.do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CreateTodo(ctx context.Context, text string) (*todo.Todo, error) {
	var t todo.Todo
	if _, err := c.do(ctx, http.MethodPost, "/todos", todo.CreateRequest{Text: text}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) ListTodos(ctx context.Context) ([]todo.Todo, error) {
	var resp todo.ListResponse
	if _, err := c.do(ctx, http.MethodGet, "/todos", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Todos, nil
}

func (c *Client) GetTodo(ctx context.Context, id string) (*todo.Todo, error) {
	return c.item(ctx, http.MethodGet, id, nil)
}

// UpdateTodo sends only the non-nil fields of req
func (c *Client) UpdateTodo(ctx context.Context, id string, req todo.UpdateRequest) (*todo.Todo, error) {
	return c.item(ctx, http.MethodPatch, id, req)
}

func (c *Client) DeleteTodo(ctx context.Context, id string) (*todo.Todo, error) {
	return c.item(ctx, http.MethodDelete, id, nil)
}

func (c *Client) item(ctx context.Context, method, id string, body any) (*todo.Todo, error) {
	var resp todo.ItemResponse
	if _, err := c.do(ctx, method, "/todos/"+url.PathEscape(id), body, &resp); err != nil {
		return nil, err
	}
	if resp.Todo == nil {
		return nil, ErrNotFound
	}
	return resp.Todo, nil
}

// do sends the request and decodes a 2xx body into out. The response
// headers are returned for callers that need x-auth.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set(auth.HeaderName, c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 300:
		return nil, decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.Header, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body httputil.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
	}
	return apiErr
}
