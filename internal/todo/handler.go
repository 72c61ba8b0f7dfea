package todo

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/go-todo-api/internal/auth"
	"github.com/redmonkez12/go-todo-api/internal/httputil"
	"github.com/redmonkez12/go-todo-api/internal/logging"
)

// Handler contains HTTP handlers for the /todos endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateRequest is the POST /todos body
type CreateRequest struct {
	Text string `json:"text"`
}

// UpdateRequest is the PATCH /todos/{id} body. Omitted fields are left alone.
type UpdateRequest struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// ListResponse wraps the caller's todos
type ListResponse struct {
	Todos []Todo `json:"todos"`
}

// ItemResponse wraps a single todo
type ItemResponse struct {
	Todo *Todo `json:"todo"`
}

// Create handles todo creation
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     AuthToken
// @Param        request body CreateRequest true "Todo text"
// @Success      200 {object} Todo
// @Failure      400 {object} httputil.ErrorResponse "Text is required"
// @Failure      401 {object} map[string]string "Unauthorized"
// @Router       /todos [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	u, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondEmpty(w, http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid create todo request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	t, err := h.service.Create(r.Context(), u.ID, req.Text)
	if err != nil {
		h.respondServiceError(w, logger, "create todo", err)
		return
	}

	logger.Info("todo created", "todo_id", t.ID, "user_id", u.ID)
	httputil.RespondJSON(w, t, http.StatusOK)
}

// List returns the caller's todos
// @Summary      List todos
// @Tags         todos
// @Produce      json
// @Security     AuthToken
// @Success      200 {object} ListResponse
// @Failure      401 {object} map[string]string "Unauthorized"
// @Router       /todos [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	u, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondEmpty(w, http.StatusUnauthorized)
		return
	}

	todos, err := h.service.List(r.Context(), u.ID)
	if err != nil {
		h.respondServiceError(w, logger, "list todos", err)
		return
	}

	httputil.RespondJSON(w, ListResponse{Todos: todos}, http.StatusOK)
}

// Get returns one todo
// @Summary      Get a todo
// @Tags         todos
// @Produce      json
// @Param        id path string true "Todo ID"
// @Success      200 {object} ItemResponse
// @Failure      404 {object} map[string]string "Not found"
// @Router       /todos/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	t, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), scopeFromRequest(r))
	if err != nil {
		h.respondServiceError(w, logger, "get todo", err)
		return
	}

	httputil.RespondJSON(w, ItemResponse{Todo: t}, http.StatusOK)
}

// Update applies a partial update to one todo
// @Summary      Update a todo
// @Description  Only supplied fields change. Completing a todo stamps completedAt; reopening clears it.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        id path string true "Todo ID"
// @Param        request body UpdateRequest true "Fields to change"
// @Success      200 {object} ItemResponse
// @Failure      400 {object} httputil.ErrorResponse "Text is required"
// @Failure      404 {object} map[string]string "Not found"
// @Router       /todos/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req UpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid update todo request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	t, err := h.service.Update(r.Context(), id, scopeFromRequest(r), UpdateInput{
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		h.respondServiceError(w, logger, "update todo", err)
		return
	}

	logger.Info("todo updated", "todo_id", id)
	httputil.RespondJSON(w, ItemResponse{Todo: t}, http.StatusOK)
}

// Delete removes one of the caller's todos
// @Summary      Delete a todo
// @Tags         todos
// @Produce      json
// @Security     AuthToken
// @Param        id path string true "Todo ID"
// @Success      200 {object} ItemResponse
// @Failure      401 {object} map[string]string "Unauthorized"
// @Failure      404 {object} map[string]string "Not found"
// @Router       /todos/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	u, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondEmpty(w, http.StatusUnauthorized)
		return
	}

	t, err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), u.ID)
	if err != nil {
		h.respondServiceError(w, logger, "delete todo", err)
		return
	}

	logger.Info("todo deleted", "todo_id", t.ID, "user_id", u.ID)
	httputil.RespondJSON(w, ItemResponse{Todo: t}, http.StatusOK)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, logger *logging.Logger, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondEmpty(w, http.StatusNotFound)
	case errors.Is(err, ErrTextRequired):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeTextRequired, http.StatusBadRequest)
	default:
		logger.Error(op+" failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to "+op, httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

// scopeFromRequest returns the authenticated user's id, or "" for anonymous
// requests
func scopeFromRequest(r *http.Request) string {
	if u, ok := auth.GetUserFromContext(r.Context()); ok {
		return u.ID
	}
	return ""
}
