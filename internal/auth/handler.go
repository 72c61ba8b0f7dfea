package auth

import (
	"errors"
	"net"
	"net/http"

	"github.com/redmonkez12/go-todo-api/internal/httputil"
	"github.com/redmonkez12/go-todo-api/internal/logging"
	"github.com/redmonkez12/go-todo-api/internal/user"
)

// Handler contains HTTP handlers for the /users endpoints
type Handler struct {
	service     *Service
	rateLimiter RateLimiter
}

// NewHandler creates a Handler. A nil rateLimiter disables throttling.
func NewHandler(service *Service, rateLimiter RateLimiter) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
	}
}

// CredentialsRequest is the signup and login request body
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email}
}

// Signup handles user registration
// @Summary      Create a user
// @Description  Create a user and issue its first auth token in the x-auth response header
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Credentials"
// @Success      200 {object} UserResponse
// @Header       200 {string} x-auth "Auth token"
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /users [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.throttled(w, r, logger, "signup") {
		return
	}

	var req CredentialsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, token, err := h.service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("signup failed: email already exists")
			httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, ErrEmailRequired):
			logger.Warn("signup failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			logger.Warn("signup failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			logger.Warn("signup failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			logger.Warn("signup failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		default:
			logger.Error("signup failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to create user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user created", "user_id", newUser.ID)

	w.Header().Set(HeaderName, token)
	httputil.RespondJSON(w, toUserResponse(newUser), http.StatusOK)
}

// Login handles user login
// @Summary      Log in
// @Description  Check credentials and issue a new auth token in the x-auth response header
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Credentials"
// @Success      200 {object} UserResponse
// @Header       200 {string} x-auth "Auth token"
// @Failure      400 {object} map[string]string "Invalid credentials"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.throttled(w, r, logger, "login") {
		return
	}

	var req CredentialsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondEmpty(w, http.StatusBadRequest)
		return
	}

	u, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials", "email", req.Email)
			httputil.RespondEmpty(w, http.StatusBadRequest)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in", "user_id", u.ID)

	w.Header().Set(HeaderName, token)
	httputil.RespondJSON(w, toUserResponse(u), http.StatusOK)
}

// Me returns the authenticated user
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     AuthToken
// @Success      200 {object} UserResponse
// @Failure      401 {object} map[string]string "Unauthorized"
// @Router       /users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondEmpty(w, http.StatusUnauthorized)
		return
	}
	httputil.RespondJSON(w, toUserResponse(u), http.StatusOK)
}

// Logout revokes the token the request was authenticated with
// @Summary      Log out
// @Tags         users
// @Produce      json
// @Security     AuthToken
// @Success      200 {object} map[string]string
// @Failure      401 {object} map[string]string "Unauthorized"
// @Router       /users/me/token [delete]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	u, ok := GetUserFromContext(r.Context())
	token, hasToken := GetTokenFromContext(r.Context())
	if !ok || !hasToken {
		httputil.RespondEmpty(w, http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), u.ID, token); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondEmpty(w, http.StatusUnauthorized)
			return
		}
		logger.Error("logout failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to logout", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged out", "user_id", u.ID)
	httputil.RespondEmpty(w, http.StatusOK)
}

// throttled counts the request against the per-IP budget for purpose.
// Limiter failures are logged and never block the request.
func (h *Handler) throttled(w http.ResponseWriter, r *http.Request, logger *logging.Logger, purpose string) bool {
	if h.rateLimiter == nil {
		return false
	}

	ip := getClientIP(r)
	allowed, err := h.rateLimiter.AllowIPRequestWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to apply IP rate limit", "error", err.Error())
		return false
	}
	if !allowed {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}
	return false
}

// getClientIP returns the host part of RemoteAddr. Forwarded headers are
// only honored when the router runs RealIP, which rewrites RemoteAddr.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
