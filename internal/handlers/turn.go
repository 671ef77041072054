package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/storyloom/guardrail/internal/logger"
	"github.com/storyloom/guardrail/internal/storage"
	"github.com/storyloom/guardrail/pkg/delta"
	"github.com/storyloom/guardrail/pkg/engine"
)

// TurnRequest is the wire form of a validation request. SessionID is
// optional: when set and prior_state is omitted, the last committed state for
// that session is loaded from storage.
type TurnRequest struct {
	engine.TurnRequest
	SessionID *uuid.UUID `json:"session_id,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TurnHandler validates one turn's LLM output and persists the evidence
// record. The caller owns recovery: a reject verdict means re-request
// narrative generation, not retry here.
type TurnHandler struct {
	engine  *engine.Engine
	storage storage.Storage
	logger  *slog.Logger
}

// NewTurnHandler creates a new turn validation handler.
func NewTurnHandler(eng *engine.Engine, storage storage.Storage, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		engine:  eng,
		storage: storage,
		logger:  logger,
	}
}

func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for turn endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported at /v1/turn.")
		return
	}

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'state_delta' and 'narrative_text' fields.")
		return
	}

	if req.NarrativeText == "" && len(req.StateDelta) == 0 {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request: state_delta or narrative_text is required.")
		return
	}

	if len(req.PriorState) == 0 && req.SessionID != nil {
		prior, err := h.storage.LoadSessionState(r.Context(), *req.SessionID)
		if err != nil {
			h.logger.Error("Failed to load session state", "session_id", req.SessionID, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session state.")
			return
		}
		req.PriorState = prior
	}

	verdict, err := h.engine.ValidateTurn(req.TurnRequest)
	if err != nil {
		h.logger.Warn("Turn request rejected as unusable", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	log := logger.WithTurnID(h.logger, verdict.TurnID.String())

	// Evidence persistence is best-effort: the verdict still stands if the
	// observability store is down.
	if _, err := h.storage.AppendEvidence(r.Context(), verdict.Evidence()); err != nil {
		log.Error("Failed to persist evidence record", "error", err)
	}

	// A committed delta advances the session snapshot, so the next turn for
	// this session loads the merged state as its prior. Rejected deltas never
	// touch the snapshot.
	if verdict.Outcome != engine.OutcomeReject && req.SessionID != nil && len(verdict.NormalizedDelta) > 0 {
		snapshot, err := delta.MergeCommitted(req.PriorState, verdict.NormalizedDelta)
		if err != nil {
			log.Error("Failed to merge committed state", "session_id", req.SessionID, "error", err)
		} else if err := h.storage.SaveSessionState(r.Context(), *req.SessionID, snapshot); err != nil {
			log.Error("Failed to persist session state", "session_id", req.SessionID, "error", err)
		}
	}

	log.Info("Turn validated",
		"outcome", verdict.Outcome,
		"exploit_outcome", verdict.ExploitOutcome,
		"findings", len(verdict.DeltaFindings),
		"signals", len(verdict.GuardrailSignals))

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(verdict); err != nil {
		h.logger.Error("Error encoding verdict response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		logger.Error("Error encoding error response", "error", err)
	}
}
