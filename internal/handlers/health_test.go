package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/storyloom/guardrail/internal/storage"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	h := NewHealthHandler(storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", resp.Status)
	}
	if resp.Service != "guardrail-engine" {
		t.Errorf("Unexpected service name %s", resp.Service)
	}
	if resp.Components["storage"] != "healthy" {
		t.Errorf("Expected healthy storage component, got %s", resp.Components["storage"])
	}
}
