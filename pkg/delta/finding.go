package delta

// Severity classifies how a finding affects the commit decision. Errors block
// commits in strict-mode domains; warnings never do.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Reason is the structured cause of a finding.
type Reason string

const (
	ReasonTypeMismatch       Reason = "type_mismatch"
	ReasonOutOfRange         Reason = "out_of_range"
	ReasonInvalidEnum        Reason = "invalid_enum"
	ReasonProvenanceMismatch Reason = "provenance_mismatch"
	ReasonMissingRequired    Reason = "missing_required"
	ReasonUnknownDomain      Reason = "unknown_domain"
)

// ValidationFinding is one rule evaluation outcome. Values are rendered as
// strings so the finding serializes flat for the evidence record.
type ValidationFinding struct {
	Path     string   `json:"path"`
	Severity Severity `json:"severity"`
	Reason   Reason   `json:"reason"`
	Expected string   `json:"expected,omitempty"`
	Actual   string   `json:"actual,omitempty"`
}

// HasErrors reports whether any finding in the list is error severity.
func HasErrors(findings []ValidationFinding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}
