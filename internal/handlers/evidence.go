package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/storyloom/guardrail/internal/storage"
)

const defaultEvidenceLimit = 100

// EvidenceHandler serves recent evidence records for the offline scenario
// harness.
type EvidenceHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewEvidenceHandler creates an evidence listing handler.
func NewEvidenceHandler(storage storage.Storage, logger *slog.Logger) *EvidenceHandler {
	return &EvidenceHandler{
		storage: storage,
		logger:  logger,
	}
}

func (h *EvidenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported at /v1/evidence.")
		return
	}

	limit := defaultEvidenceLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid limit parameter.")
			return
		}
		limit = parsed
	}

	records, err := h.storage.ListEvidence(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list evidence records", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list evidence records.")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(records); err != nil {
		h.logger.Error("Error encoding evidence response", "error", err)
	}
}
