package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyloom/guardrail/internal/storage"
	"github.com/storyloom/guardrail/pkg/engine"
)

func TestEvidenceHandler_List(t *testing.T) {
	store := storage.NewMockStorage()
	for i := 0; i < 3; i++ {
		_, err := store.AppendEvidence(context.Background(), engine.EvidenceRecord{
			TurnID:  "turn-" + strconv.Itoa(i),
			Outcome: engine.OutcomeCommit,
		})
		require.NoError(t, err)
	}
	h := NewEvidenceHandler(store, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/evidence?limit=2", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var records []engine.EvidenceRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "turn-1", records[0].TurnID, "oldest of the window first")
	assert.Equal(t, "turn-2", records[1].TurnID)
}

func TestEvidenceHandler_InvalidLimit(t *testing.T) {
	h := NewEvidenceHandler(storage.NewMockStorage(), testLogger())

	for _, limit := range []string{"0", "-5", "many"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/evidence?limit="+limit, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", limit)
	}
}

func TestEvidenceHandler_MethodNotAllowed(t *testing.T) {
	h := NewEvidenceHandler(storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/evidence", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
