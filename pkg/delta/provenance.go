package delta

import (
	"fmt"
	"strings"

	"github.com/storyloom/guardrail/pkg/schema"
)

// socialHPByTier is the social-HP pool granted per NPC power tier.
var socialHPByTier = map[int64]int64{
	1: 10,
	2: 16,
	3: 24,
	4: 34,
	5: 46,
	6: 60,
}

// worldClockFields orders the world_time sub-fields from most to least
// significant for tuple comparison.
var worldClockFields = []string{"year", "month", "day", "hour", "minute", "second", "microsecond"}

// Resolver re-derives output fields that must be copied or computed from
// prior-turn state. It never guesses: an absent source is a finding, because
// "we can't check it" must not pass as "it's valid".
type Resolver struct{}

// NewResolver creates a provenance resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve checks one provenance-linked match against prior state. fullDelta
// is the entire state delta, consulted for override directives and for
// sibling placeholder values.
func (r *Resolver) Resolve(rule schema.SchemaRule, m match, fullDelta, prior map[string]any) []ValidationFinding {
	prov := rule.Provenance
	source, ok := expandPlaceholders(prov.Source, m.parent)
	if !ok {
		return []ValidationFinding{{
			Path:     m.path,
			Severity: SeverityError,
			Reason:   ReasonMissingRequired,
			Expected: "sibling field for provenance source " + prov.Source,
			Actual:   "absent",
		}}
	}

	srcVal, ok := lookupPath(prior, source)
	if !ok {
		return []ValidationFinding{{
			Path:     m.path,
			Severity: SeverityError,
			Reason:   ReasonMissingRequired,
			Expected: "prior state value at " + source,
			Actual:   "absent",
		}}
	}

	switch prov.Derivation {
	case schema.DeriveCopy:
		return r.resolveCopy(m, srcVal, source)
	case schema.DeriveMonotonic:
		return r.resolveMonotonic(m, srcVal, source, prov, fullDelta)
	case schema.DeriveComputed:
		return r.resolveComputed(m, srcVal, source, prov, fullDelta)
	}
	return nil
}

func (r *Resolver) resolveCopy(m match, srcVal any, source string) []ValidationFinding {
	if valuesEqual(m.value, srcVal) {
		return nil
	}
	return []ValidationFinding{{
		Path:     m.path,
		Severity: SeverityError,
		Reason:   ReasonProvenanceMismatch,
		Expected: fmt.Sprintf("%s (copied from %s)", renderValue(srcVal), source),
		Actual:   renderValue(m.value),
	}}
}

func (r *Resolver) resolveMonotonic(m match, srcVal any, source string, prov *schema.Provenance, fullDelta map[string]any) []ValidationFinding {
	actual, okA := asInt64(m.value)
	prev, okP := asInt64(srcVal)
	if !okA || !okP {
		return []ValidationFinding{{
			Path:     m.path,
			Severity: SeverityError,
			Reason:   ReasonTypeMismatch,
			Expected: "integer",
			Actual:   renderValue(m.value),
		}}
	}
	if actual >= prev {
		return nil
	}
	if directivePresent(fullDelta, prov.OverrideDirective) {
		return nil
	}
	return []ValidationFinding{{
		Path:     m.path,
		Severity: SeverityError,
		Reason:   ReasonProvenanceMismatch,
		Expected: fmt.Sprintf(">= %d (from %s, no %s directive present)", prev, source, prov.OverrideDirective),
		Actual:   renderValue(m.value),
	}}
}

func (r *Resolver) resolveComputed(m match, srcVal any, source string, prov *schema.Provenance, fullDelta map[string]any) []ValidationFinding {
	switch prov.FormulaID {
	case "social_hp_by_tier":
		tier, ok := asInt64(srcVal)
		if !ok {
			return []ValidationFinding{{
				Path:     m.path,
				Severity: SeverityError,
				Reason:   ReasonTypeMismatch,
				Expected: "integer tier at " + source,
				Actual:   renderValue(srcVal),
			}}
		}
		want, ok := socialHPByTier[tier]
		if !ok {
			return []ValidationFinding{{
				Path:     m.path,
				Severity: SeverityError,
				Reason:   ReasonOutOfRange,
				Expected: "tier 1-6 at " + source,
				Actual:   renderValue(srcVal),
			}}
		}
		actual, ok := asInt64(m.value)
		if !ok || actual != want {
			return []ValidationFinding{{
				Path:     m.path,
				Severity: SeverityError,
				Reason:   ReasonProvenanceMismatch,
				Expected: fmt.Sprintf("%d (social_hp_by_tier for tier %d)", want, tier),
				Actual:   renderValue(m.value),
			}}
		}
		return nil

	case "world_clock":
		return r.resolveWorldClock(m, srcVal, prov, fullDelta)
	}

	return []ValidationFinding{{
		Path:     m.path,
		Severity: SeverityError,
		Reason:   ReasonProvenanceMismatch,
		Expected: "known formula",
		Actual:   prov.FormulaID,
	}}
}

// resolveWorldClock compares the full timestamp tuple, not individual fields:
// an hour rollback is legal when the day advanced.
func (r *Resolver) resolveWorldClock(m match, srcVal any, prov *schema.Provenance, fullDelta map[string]any) []ValidationFinding {
	next, okN := m.value.(map[string]any)
	prev, okP := srcVal.(map[string]any)
	if !okN || !okP {
		return []ValidationFinding{{
			Path:     m.path,
			Severity: SeverityError,
			Reason:   ReasonTypeMismatch,
			Expected: "object",
			Actual:   renderValue(m.value),
		}}
	}
	for _, field := range worldClockFields {
		nv, okN := asInt64(next[field])
		pv, okP := asInt64(prev[field])
		if !okN || !okP {
			// Field-level rules report malformed values; the clock
			// comparison only runs over well-formed pairs.
			return nil
		}
		if nv > pv {
			return nil
		}
		if nv < pv {
			if directivePresent(fullDelta, prov.OverrideDirective) {
				return nil
			}
			return []ValidationFinding{{
				Path:     m.path,
				Severity: SeverityError,
				Reason:   ReasonProvenanceMismatch,
				Expected: fmt.Sprintf("world time at or after prior (no %s directive present)", prov.OverrideDirective),
				Actual:   fmt.Sprintf("%s moved backwards", field),
			}}
		}
	}
	return nil
}

// directivePresent reports whether an override directive is set and truthy in
// the delta.
func directivePresent(fullDelta map[string]any, path string) bool {
	if path == "" {
		return false
	}
	v, ok := lookupPath(fullDelta, path)
	if !ok {
		return false
	}
	switch d := v.(type) {
	case bool:
		return d
	case string:
		return d != ""
	case nil:
		return false
	}
	return true
}

// expandPlaceholders substitutes {field} markers in a source path with the
// sibling field's value from the delta.
func expandPlaceholders(source string, parent map[string]any) (string, bool) {
	if !strings.Contains(source, "{") {
		return source, true
	}
	out := source
	for {
		start := strings.Index(out, "{")
		if start < 0 {
			return out, true
		}
		end := strings.Index(out[start:], "}")
		if end < 0 {
			return out, true
		}
		name := out[start+1 : start+end]
		v, ok := parent[name]
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", false
		}
		out = out[:start] + s + out[start+end+1:]
	}
}

// valuesEqual compares two JSON scalars, tolerating the int/float/Number
// representations different decoders produce.
func valuesEqual(a, b any) bool {
	if ai, ok := asInt64(a); ok {
		if bi, ok := asInt64(b); ok {
			return ai == bi
		}
		return false
	}
	return renderValue(a) == renderValue(b)
}
