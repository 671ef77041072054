package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyloom/guardrail/internal/storage"
)

func TestSessionHandler_PutThenGet(t *testing.T) {
	h := NewSessionHandler(storage.NewMockStorage(), testLogger())
	id := uuid.New()
	state := `{"character":{"level":3,"xp":250}}`

	req := httptest.NewRequest(http.MethodPut, "/v1/sessions/"+id.String(),
		bytes.NewBufferString(state))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/"+id.String(), nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, state, w.Body.String())
}

func TestSessionHandler_GetUnknownSession(t *testing.T) {
	h := NewSessionHandler(storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_InvalidID(t *testing.T) {
	h := NewSessionHandler(storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/not-a-uuid", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_PutRejectsInvalidJSON(t *testing.T) {
	h := NewSessionHandler(storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodPut, "/v1/sessions/"+uuid.New().String(),
		bytes.NewBufferString(`{"character":`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_MethodNotAllowed(t *testing.T) {
	h := NewSessionHandler(storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
