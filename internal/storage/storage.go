package storage

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/storyloom/guardrail/pkg/engine"
)

// Storage persists committed session state and the evidence records consumed
// by the offline scenario harness. The engine itself never touches storage;
// the API handler (the persistence caller) does.
type Storage interface {
	// SaveSessionState stores the last committed game state for a session.
	SaveSessionState(ctx context.Context, id uuid.UUID, state json.RawMessage) error
	// LoadSessionState returns the committed state, or nil when the
	// session has none yet.
	LoadSessionState(ctx context.Context, id uuid.UUID) (json.RawMessage, error)

	// AppendEvidence stores a verdict's evidence record and returns its
	// sortable record ID.
	AppendEvidence(ctx context.Context, rec engine.EvidenceRecord) (string, error)
	// ListEvidence returns up to limit of the most recent evidence
	// records, oldest first.
	ListEvidence(ctx context.Context, limit int) ([]engine.EvidenceRecord, error)

	Ping(ctx context.Context) error
	Close() error
}
