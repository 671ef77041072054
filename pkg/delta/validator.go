package delta

import (
	"fmt"
	"sort"
	"strings"

	"github.com/storyloom/guardrail/pkg/schema"
)

// Validator walks a state-delta document against the schema registry. It is a
// pure function of its inputs: values are flagged, never coerced or clamped.
type Validator struct {
	registry *schema.Registry
	resolver *Resolver
}

// NewValidator creates a validator over a rule registry.
func NewValidator(registry *schema.Registry) *Validator {
	return &Validator{
		registry: registry,
		resolver: NewResolver(),
	}
}

// Validate checks the domain document domainDoc against the domain's rules.
// fullDelta is the entire delta (for override directives); prior is the last
// committed state. Finding paths are prefixed with the domain name.
func (v *Validator) Validate(domain string, domainDoc any, fullDelta, prior map[string]any) []ValidationFinding {
	d := v.registry.GetRules(domain)
	if d == nil {
		return []ValidationFinding{{
			Path:     domain,
			Severity: SeverityWarning,
			Reason:   ReasonUnknownDomain,
			Expected: "a catalogued domain",
			Actual:   domain,
		}}
	}

	// Every catalogued domain is an object at the root; a scalar here
	// would otherwise slip past the per-field rules unchecked.
	if _, ok := domainDoc.(map[string]any); !ok {
		return []ValidationFinding{{
			Path:     domain,
			Severity: SeverityError,
			Reason:   ReasonTypeMismatch,
			Expected: "object",
			Actual:   renderValue(domainDoc),
		}}
	}

	var findings []ValidationFinding
	if len(d.KeyEnum) > 0 {
		findings = append(findings, v.checkKeys(d, domainDoc)...)
	}

	for _, rule := range d.Rules {
		for _, m := range expandPath(domainDoc, rule.Path) {
			findings = append(findings, v.checkMatch(d, rule, m, fullDelta, prior)...)
		}
	}

	for i := range findings {
		findings[i].Path = joinPath(domain, findings[i].Path)
	}
	return findings
}

// checkKeys enforces a fixed key vocabulary on the domain root, rejecting
// known-wrong aliases with the canonical name.
func (v *Validator) checkKeys(d *schema.Domain, domainDoc any) []ValidationFinding {
	obj, ok := domainDoc.(map[string]any)
	if !ok {
		return []ValidationFinding{{
			Severity: SeverityError,
			Reason:   ReasonTypeMismatch,
			Expected: "object",
			Actual:   renderValue(domainDoc),
		}}
	}

	allowed := make(map[string]bool, len(d.KeyEnum))
	for _, k := range d.KeyEnum {
		allowed[k] = true
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var findings []ValidationFinding
	for _, k := range keys {
		if allowed[k] {
			continue
		}
		if canonical, known := d.KeyAliases[k]; known {
			findings = append(findings, ValidationFinding{
				Path:     k,
				Severity: SeverityError,
				Reason:   ReasonInvalidEnum,
				Expected: fmt.Sprintf("use canonical slot %q", canonical),
				Actual:   k,
			})
			continue
		}
		findings = append(findings, ValidationFinding{
			Path:     k,
			Severity: SeverityError,
			Reason:   ReasonInvalidEnum,
			Expected: "one of " + strings.Join(d.KeyEnum, ", "),
			Actual:   k,
		})
	}
	return findings
}

func (v *Validator) checkMatch(d *schema.Domain, rule schema.SchemaRule, m match, fullDelta, prior map[string]any) []ValidationFinding {
	if !m.exists {
		if rule.Required {
			return []ValidationFinding{{
				Path:     m.path,
				Severity: SeverityError,
				Reason:   ReasonMissingRequired,
				Expected: string(rule.Kind),
				Actual:   "absent",
			}}
		}
		return nil
	}

	if m.value == nil {
		if rule.Nullable {
			return nil
		}
		return []ValidationFinding{{
			Path:     m.path,
			Severity: SeverityError,
			Reason:   ReasonTypeMismatch,
			Expected: string(rule.Kind),
			Actual:   "null",
		}}
	}

	var findings []ValidationFinding
	switch rule.Kind {
	case schema.KindIntRange:
		findings = v.checkInt(rule, m)
	case schema.KindEnum:
		findings = v.checkEnum(rule, m)
	case schema.KindBool:
		if _, ok := m.value.(bool); !ok {
			findings = typeMismatch(m, "bool")
		}
	case schema.KindString:
		findings = v.checkString(rule, m)
	case schema.KindArray:
		findings = v.checkArray(d, rule, m, prior)
	case schema.KindObject:
		if _, ok := m.value.(map[string]any); !ok {
			findings = typeMismatch(m, "object")
		}
	}

	// Provenance runs only on values that already look structurally sound;
	// a type error and a provenance error on the same path would be noise.
	if rule.Provenance != nil && len(findings) == 0 {
		findings = append(findings, v.resolver.Resolve(rule, m, fullDelta, prior)...)
	}
	return findings
}

func (v *Validator) checkInt(rule schema.SchemaRule, m match) []ValidationFinding {
	n, ok := asInt64(m.value)
	if !ok {
		return typeMismatch(m, "integer")
	}
	if rule.Min != nil && n < *rule.Min || rule.Max != nil && n > *rule.Max {
		return []ValidationFinding{{
			Path:     m.path,
			Severity: SeverityError,
			Reason:   ReasonOutOfRange,
			Expected: renderBounds(rule.Min, rule.Max),
			Actual:   renderValue(m.value),
		}}
	}
	if rule.NotAbove != "" && m.parent != nil {
		if limit, ok := asInt64(m.parent[rule.NotAbove]); ok && n > limit {
			return []ValidationFinding{{
				Path:     m.path,
				Severity: SeverityError,
				Reason:   ReasonOutOfRange,
				Expected: fmt.Sprintf("<= %s (%d)", rule.NotAbove, limit),
				Actual:   renderValue(m.value),
			}}
		}
	}
	return nil
}

func (v *Validator) checkEnum(rule schema.SchemaRule, m match) []ValidationFinding {
	s, ok := m.value.(string)
	if !ok {
		return typeMismatch(m, "string")
	}
	found := false
	for _, allowed := range rule.Enum {
		if s == allowed {
			found = true
			break
		}
	}
	if !found {
		return []ValidationFinding{{
			Path:     m.path,
			Severity: SeverityError,
			Reason:   ReasonInvalidEnum,
			Expected: "one of " + strings.Join(rule.Enum, ", "),
			Actual:   s,
		}}
	}

	// Banded enums must agree with their sibling score. The check only
	// runs when the score itself is well-formed and in range; the score
	// rule reports its own failures.
	if rule.BandSource != "" && m.parent != nil {
		score, ok := asInt64(m.parent[rule.BandSource])
		if !ok {
			return nil
		}
		for _, band := range rule.Bands {
			if score < band.Min || score > band.Max {
				continue
			}
			if s != band.Value {
				return []ValidationFinding{{
					Path:     m.path,
					Severity: SeverityError,
					Reason:   ReasonInvalidEnum,
					Expected: fmt.Sprintf("%s (%s=%d)", band.Value, rule.BandSource, score),
					Actual:   s,
				}}
			}
			return nil
		}
	}
	return nil
}

func (v *Validator) checkString(rule schema.SchemaRule, m match) []ValidationFinding {
	s, ok := m.value.(string)
	if !ok {
		return typeMismatch(m, "string")
	}
	if rule.Format != nil && !rule.Format.MatchString(s) {
		return []ValidationFinding{{
			Path:     m.path,
			Severity: SeverityError,
			Reason:   ReasonTypeMismatch,
			Expected: "format " + rule.Format.String(),
			Actual:   s,
		}}
	}
	return nil
}

func (v *Validator) checkArray(d *schema.Domain, rule schema.SchemaRule, m match, prior map[string]any) []ValidationFinding {
	arr, ok := m.value.([]any)
	if !ok {
		return typeMismatch(m, "array")
	}

	var findings []ValidationFinding
	if rule.ElemKind == schema.KindString {
		for i, elem := range arr {
			if _, ok := elem.(string); !ok {
				findings = append(findings, ValidationFinding{
					Path:     fmt.Sprintf("%s[%d]", m.path, i),
					Severity: SeverityError,
					Reason:   ReasonTypeMismatch,
					Expected: "string",
					Actual:   renderValue(elem),
				})
			}
		}
	}

	if rule.AppendOnly {
		findings = append(findings, v.checkAppendOnly(d, m, arr, prior)...)
	}
	return findings
}

// checkAppendOnly verifies the prior-state array survives as a prefix of the
// new one. A shrinking or rewritten history is state tampering, not an edit.
func (v *Validator) checkAppendOnly(d *schema.Domain, m match, arr []any, prior map[string]any) []ValidationFinding {
	priorVal, ok := lookupPath(prior, joinPath(d.PriorPath, m.path))
	if !ok {
		return nil // nothing committed yet, any content is an append
	}
	priorArr, ok := priorVal.([]any)
	if !ok {
		return nil
	}
	if len(arr) < len(priorArr) {
		return []ValidationFinding{{
			Path:     m.path,
			Severity: SeverityError,
			Reason:   ReasonProvenanceMismatch,
			Expected: fmt.Sprintf("append-only array with >= %d entries", len(priorArr)),
			Actual:   fmt.Sprintf("%d entries", len(arr)),
		}}
	}
	for i, prev := range priorArr {
		if !valuesEqual(arr[i], prev) {
			return []ValidationFinding{{
				Path:     fmt.Sprintf("%s[%d]", m.path, i),
				Severity: SeverityError,
				Reason:   ReasonProvenanceMismatch,
				Expected: renderValue(prev) + " (append-only)",
				Actual:   renderValue(arr[i]),
			}}
		}
	}
	return nil
}

func typeMismatch(m match, expected string) []ValidationFinding {
	return []ValidationFinding{{
		Path:     m.path,
		Severity: SeverityError,
		Reason:   ReasonTypeMismatch,
		Expected: expected,
		Actual:   renderValue(m.value),
	}}
}

func renderBounds(min, max *int64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("[%d, %d]", *min, *max)
	case min != nil:
		return fmt.Sprintf(">= %d", *min)
	case max != nil:
		return fmt.Sprintf("<= %d", *max)
	}
	return "integer"
}
