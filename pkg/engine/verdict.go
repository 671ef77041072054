package engine

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/storyloom/guardrail/pkg/delta"
	"github.com/storyloom/guardrail/pkg/guardrail"
)

// Outcome is the engine's final decision for a turn.
type Outcome string

const (
	OutcomeCommit            Outcome = "commit"
	OutcomeReject            Outcome = "reject"
	OutcomeCommitWithWarning Outcome = "commit_with_warning"
)

// Verdict is the full decision for one turn, with the evidence that produced
// it. NormalizedDelta is only set on commit outcomes; it is the input delta
// with deterministic key order and untouched values, never a repaired one.
type Verdict struct {
	TurnID           uuid.UUID                   `json:"turn_id"`
	Outcome          Outcome                     `json:"outcome"`
	DeltaFindings    []delta.ValidationFinding   `json:"delta_findings,omitempty"`
	GuardrailSignals []guardrail.GuardrailSignal `json:"guardrail_signals,omitempty"`
	DeclaredCategory guardrail.ExploitCategory   `json:"declared_exploit_category,omitempty"`
	MatchedCategory  guardrail.ExploitCategory   `json:"matched_exploit_category,omitempty"`
	ExploitOutcome   guardrail.ExploitOutcome    `json:"exploit_outcome"`
	Confidence       float64                     `json:"confidence"`
	NormalizedDelta  json.RawMessage             `json:"normalized_delta,omitempty"`
}

// EvidenceRecord is the flat, serializable form of a verdict consumed by the
// offline scenario harness. The engine only produces this shape; it never
// depends on the harness.
type EvidenceRecord struct {
	TurnID                  string                      `json:"turn_id"`
	Outcome                 Outcome                     `json:"outcome"`
	MatchedExploitCategory  string                      `json:"matched_exploit_category"`
	DeclaredExploitCategory string                      `json:"declared_exploit_category"`
	Findings                []delta.ValidationFinding   `json:"findings"`
	Signals                 []guardrail.GuardrailSignal `json:"signals"`
	Confidence              float64                     `json:"confidence"`
}

// Evidence flattens the verdict for observability storage.
func (v *Verdict) Evidence() EvidenceRecord {
	return EvidenceRecord{
		TurnID:                  v.TurnID.String(),
		Outcome:                 v.Outcome,
		MatchedExploitCategory:  string(v.MatchedCategory),
		DeclaredExploitCategory: string(v.DeclaredCategory),
		Findings:                v.DeltaFindings,
		Signals:                 v.GuardrailSignals,
		Confidence:              v.Confidence,
	}
}
