package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/storyloom/guardrail/pkg/engine"
)

// MockStorage is an in-memory Storage for handler tests.
type MockStorage struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]json.RawMessage
	evidence []engine.EvidenceRecord

	// FailNext makes the next operation return an error, for testing
	// handler error paths.
	FailNext bool
}

var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates an empty in-memory store.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]json.RawMessage),
	}
}

func (m *MockStorage) failNext() error {
	if m.FailNext {
		m.FailNext = false
		return fmt.Errorf("mock storage failure")
	}
	return nil
}

func (m *MockStorage) SaveSessionState(ctx context.Context, id uuid.UUID, state json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return err
	}
	m.sessions[id] = append(json.RawMessage(nil), state...)
	return nil
}

func (m *MockStorage) LoadSessionState(ctx context.Context, id uuid.UUID) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return nil, err
	}
	state, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return state, nil
}

func (m *MockStorage) AppendEvidence(ctx context.Context, rec engine.EvidenceRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return "", err
	}
	m.evidence = append(m.evidence, rec)
	return ulid.Make().String(), nil
}

func (m *MockStorage) ListEvidence(ctx context.Context, limit int) ([]engine.EvidenceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return nil, err
	}
	start := len(m.evidence) - limit
	if start < 0 {
		start = 0
	}
	out := make([]engine.EvidenceRecord, len(m.evidence[start:]))
	copy(out, m.evidence[start:])
	return out, nil
}

func (m *MockStorage) Ping(ctx context.Context) error { return nil }
func (m *MockStorage) Close() error                   { return nil }
