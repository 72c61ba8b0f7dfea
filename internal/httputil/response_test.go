package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondEmpty(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondEmpty(rec, http.StatusUnauthorized)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestRespondErrorWithCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithCode(rec, "text is required", CodeTextRequired, http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"text is required","code":"TEXT_REQUIRED"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Text *string `json:"text"`
	}

	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"text":"walk"}`))
	require.NoError(t, DecodeJSON(req, &body))
	require.NotNil(t, body.Text)
	assert.Equal(t, "walk", *body.Text)

	body.Text = nil
	req = httptest.NewRequest(http.MethodPost, "/todos", nil)
	require.NoError(t, DecodeJSON(req, &body))
	assert.Nil(t, body.Text)

	req = httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"text":`))
	assert.Error(t, DecodeJSON(req, &body))
}
