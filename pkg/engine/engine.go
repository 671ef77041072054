package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/storyloom/guardrail/pkg/delta"
	"github.com/storyloom/guardrail/pkg/guardrail"
	"github.com/storyloom/guardrail/pkg/schema"
)

// TurnRequest is one turn's raw LLM output plus the last committed state.
// Policy carries optional per-domain strict/warn overrides for this turn.
type TurnRequest struct {
	PriorState              json.RawMessage   `json:"prior_state"`
	StateDelta              json.RawMessage   `json:"state_delta"`
	NarrativeText           string            `json:"narrative_text"`
	DeclaredExploitCategory string            `json:"declared_exploit_category,omitempty"`
	TriggeringText          string            `json:"triggering_text,omitempty"`
	Policy                  map[string]string `json:"policy,omitempty"`
}

// Engine is the trust boundary between the LLM's output and durable state.
// It holds only process-lifetime, read-only structures (schema registry,
// compiled pattern library), so one Engine serves concurrent sessions without
// coordination. Every call is synchronous and pure: no I/O, no retries, no
// repaired values.
type Engine struct {
	registry   *schema.Registry
	validator  *delta.Validator
	scanner    *guardrail.Scanner
	classifier *guardrail.Classifier
	policy     Policy
	logger     *slog.Logger
}

// New builds an engine with the given base policy. A nil policy means every
// domain is strict.
func New(policy Policy, logger *slog.Logger) *Engine {
	registry := schema.NewRegistry()
	scanner := guardrail.NewScanner()
	if policy == nil {
		policy = Policy{}
	}
	return &Engine{
		registry:   registry,
		validator:  delta.NewValidator(registry),
		scanner:    scanner,
		classifier: guardrail.NewClassifier(scanner),
		policy:     policy,
		logger:     logger,
	}
}

// ValidateTurn validates the state delta against the schema registry, scans
// the narrative for guardrail evidence, and combines both into one verdict.
// An error return means the request itself was unusable (malformed JSON,
// unknown category, bad policy override), not that validation failed.
// Validation failures are verdicts.
func (e *Engine) ValidateTurn(req TurnRequest) (*Verdict, error) {
	prior, err := delta.Decode(req.PriorState)
	if err != nil {
		return nil, fmt.Errorf("invalid prior state: %w", err)
	}
	deltaDoc, err := delta.Decode(req.StateDelta)
	if err != nil {
		return nil, fmt.Errorf("invalid state delta: %w", err)
	}

	var declared guardrail.ExploitCategory
	if req.DeclaredExploitCategory != "" {
		declared, err = guardrail.ParseCategory(req.DeclaredExploitCategory)
		if err != nil {
			return nil, err
		}
	}

	policy, err := e.policy.Merge(req.Policy)
	if err != nil {
		return nil, err
	}

	var findings []delta.ValidationFinding
	for _, dd := range domainDocs(deltaDoc) {
		findings = append(findings, e.validator.Validate(dd.domain, dd.doc, deltaDoc, prior)...)
	}

	signals := e.scanner.Scan(req.NarrativeText, declared)
	exploit := e.classifier.Classify(signals, guardrail.ExploitAttempt{
		Category:       declared,
		TriggeringText: req.TriggeringText,
		NarrativeText:  req.NarrativeText,
	}, prior)

	verdict := &Verdict{
		TurnID:           uuid.New(),
		DeltaFindings:    findings,
		GuardrailSignals: signals,
		DeclaredCategory: declared,
		MatchedCategory:  exploit.MatchedCategory,
		ExploitOutcome:   exploit.Outcome,
		Confidence:       exploit.Confidence,
	}
	verdict.Outcome = e.enforce(findings, exploit, policy)

	if verdict.Outcome != OutcomeReject {
		normalized, err := delta.Normalize(deltaDoc)
		if err != nil {
			return nil, err
		}
		verdict.NormalizedDelta = normalized
	}

	if e.logger != nil {
		e.logger.Debug("Turn validated",
			"turn_id", verdict.TurnID,
			"outcome", verdict.Outcome,
			"exploit_outcome", exploit.Outcome,
			"finding_count", len(findings),
			"signal_count", len(signals))
	}
	return verdict, nil
}

// enforce combines validation findings and the exploit verdict under the
// per-domain policy. Exploit acceptance always escalates to reject: guardrail
// failures are never downgradable to warnings.
func (e *Engine) enforce(findings []delta.ValidationFinding, exploit guardrail.ExploitVerdict, policy Policy) Outcome {
	if exploit.Outcome == guardrail.ExploitAccepted {
		return OutcomeReject
	}

	warned := false
	for _, f := range findings {
		if f.Severity != delta.SeverityError {
			warned = true
			continue
		}
		domain := findingDomain(f.Path)
		if policy.ModeFor(domain) == ModeStrict {
			return OutcomeReject
		}
		if e.logger != nil {
			e.logger.Warn("Committing despite finding in warn-mode domain",
				"path", f.Path,
				"reason", f.Reason,
				"expected", f.Expected,
				"actual", f.Actual)
		}
		warned = true
	}

	switch exploit.Outcome {
	case guardrail.ExploitCategoryMismatch, guardrail.ExploitAmbiguous:
		warned = true
	}

	if warned {
		return OutcomeCommitWithWarning
	}
	return OutcomeCommit
}

type domainDoc struct {
	domain string
	doc    any
}

// domainDocs splits the delta's top-level keys into validatable domains.
// The "directives" carrier (override flags like xp_reset) is not itself a
// validated domain, and "reputation" fans out into its public and private
// halves.
func domainDocs(deltaDoc map[string]any) []domainDoc {
	var out []domainDoc
	for key, doc := range deltaDoc {
		switch key {
		case "directives":
			continue
		case "reputation":
			rep, ok := doc.(map[string]any)
			if !ok {
				out = append(out, domainDoc{domain: "reputation.public", doc: doc})
				continue
			}
			for sub, subDoc := range rep {
				out = append(out, domainDoc{domain: "reputation." + sub, doc: subDoc})
			}
		default:
			out = append(out, domainDoc{domain: key, doc: doc})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].domain < out[j].domain })
	return out
}

// findingDomain recovers the policy domain from a finding path.
func findingDomain(path string) string {
	for _, domain := range []string{"reputation.public", "reputation.private"} {
		if len(path) >= len(domain) && path[:len(domain)] == domain {
			return domain
		}
	}
	for i, r := range path {
		if r == '.' {
			return path[:i]
		}
	}
	return path
}
