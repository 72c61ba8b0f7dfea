package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/redmonkez12/go-todo-api/internal/httputil"
	"github.com/redmonkez12/go-todo-api/internal/logging"
	"github.com/redmonkez12/go-todo-api/internal/user"
)

// HeaderName carries the auth token on requests and on signup/login responses
const HeaderName = "x-auth"

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey  ContextKey = "user"
	TokenContextKey ContextKey = "token"
)

// Middleware handles authentication for protected routes
type Middleware struct {
	authenticator Authenticator
}

func NewMiddleware(authenticator Authenticator) *Middleware {
	return &Middleware{authenticator: authenticator}
}

// RequireAuth rejects requests without a valid x-auth token with 401 and
// an empty JSON object
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		token := r.Header.Get(HeaderName)
		if token == "" {
			httputil.RespondEmpty(w, http.StatusUnauthorized)
			return
		}

		u, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrExpiredToken) {
				logger.Debug("authentication rejected", "error", err.Error())
				httputil.RespondEmpty(w, http.StatusUnauthorized)
				return
			}
			logger.Error("authentication failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to authenticate", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u, token)))
	})
}

// OptionalAuth attaches the user when a valid token is presented and lets
// anonymous or unresolvable requests through unchanged
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(HeaderName)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		u, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			logging.GetLoggerFromContext(r.Context()).Debug("optional authentication skipped", "error", err.Error())
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u, token)))
	})
}

func withUser(ctx context.Context, u *user.User, token string) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, u)
	return context.WithValue(ctx, TokenContextKey, token)
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*user.User)
	return u, ok
}

// GetTokenFromContext extracts the token the user authenticated with
func GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenContextKey).(string)
	return token, ok
}
