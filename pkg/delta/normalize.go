package delta

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode parses raw JSON into a document tree, preserving numbers as
// json.Number so passing values survive re-encoding bit-identical.
func Decode(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// Normalize re-encodes a delta with deterministic key ordering. Values are
// never rewritten: normalization is key order and typing only, so a passing
// field round-trips byte-for-byte.
func Normalize(doc map[string]any) (json.RawMessage, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize delta: %w", err)
	}
	return data, nil
}

// MergeCommitted overlays a committed delta's top-level domains onto the
// prior state document. Deltas address whole domain documents, so the merge
// replaces at the top level only; values pass through as raw JSON, untouched.
func MergeCommitted(prior, committed json.RawMessage) (json.RawMessage, error) {
	merged := make(map[string]json.RawMessage)
	if len(prior) > 0 {
		if err := json.Unmarshal(prior, &merged); err != nil {
			return nil, fmt.Errorf("failed to decode prior state: %w", err)
		}
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(committed, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode committed delta: %w", err)
	}
	if merged == nil {
		merged = make(map[string]json.RawMessage, len(doc))
	}
	for domain, value := range doc {
		merged[domain] = value
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged state: %w", err)
	}
	return out, nil
}
