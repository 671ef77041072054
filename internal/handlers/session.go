package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/storyloom/guardrail/internal/storage"
)

// SessionHandler stores and returns committed session state. Merging a
// normalized delta into state is the persistence caller's job; this endpoint
// is where the merged result lands.
type SessionHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewSessionHandler creates a session state handler.
func NewSessionHandler(storage storage.Storage, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		storage: storage,
		logger:  logger,
	}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	idStr := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID.")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getState(w, r, id)
	case http.MethodPut:
		h.putState(w, r, id)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET and PUT are supported.")
	}
}

func (h *SessionHandler) getState(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	state, err := h.storage.LoadSessionState(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session state", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session state.")
		return
	}
	if state == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found.")
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(state); err != nil {
		h.logger.Error("Error writing session state response", "error", err)
	}
}

func (h *SessionHandler) putState(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Failed to read request body.")
		return
	}
	if !json.Valid(body) {
		writeError(w, h.logger, http.StatusBadRequest, "Session state must be valid JSON.")
		return
	}
	if err := h.storage.SaveSessionState(r.Context(), id, body); err != nil {
		h.logger.Error("Failed to save session state", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session state.")
		return
	}
	h.logger.Info("Session state saved", "session_id", id, "bytes", len(body))
	w.WriteHeader(http.StatusNoContent)
}
