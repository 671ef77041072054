package schema

import "regexp"

// RuleKind identifies the shape a validated field must have. Keeping this an
// explicit enum (rather than inspecting values at runtime) lets the validator
// switch exhaustively over every kind it knows how to check.
type RuleKind string

const (
	KindIntRange RuleKind = "int_range"
	KindEnum     RuleKind = "enum"
	KindBool     RuleKind = "bool"
	KindString   RuleKind = "string"
	KindArray    RuleKind = "array"
	KindObject   RuleKind = "object"
)

// Derivation names how a provenance-linked field relates to its source in the
// prior committed state.
type Derivation string

const (
	// DeriveCopy requires the output value to equal the source verbatim.
	DeriveCopy Derivation = "copy"
	// DeriveMonotonic requires output >= source. A decrease is only legal
	// when the override directive is present in the same delta.
	DeriveMonotonic Derivation = "monotonic_increase"
	// DeriveComputed requires the output to match a named formula applied
	// to the source value.
	DeriveComputed Derivation = "computed"
)

// Provenance links a delta field to the prior-state field it must be copied
// or derived from. Source is a dotted path into prior state and may contain
// {field} placeholders, resolved from sibling fields of the delta (e.g.
// "npcs.{npc_name}.tier").
type Provenance struct {
	Source            string
	Derivation        Derivation
	FormulaID         string // set when Derivation is DeriveComputed
	OverrideDirective string // delta path authorizing a decrease (monotonic only)
}

// Band maps an inclusive numeric range to the enum value it requires.
type Band struct {
	Min   int64
	Max   int64
	Value string
}

// SchemaRule describes one validated field within a domain document.
//
// Path is dotted and relative to the domain root. Two wildcard forms are
// supported: a "*" segment matches every key of a map at that position, and a
// "[]" suffix on a segment matches every element of an array. An empty Path
// addresses the domain root itself.
type SchemaRule struct {
	Path     string
	Kind     RuleKind
	Required bool

	// Bounds for KindIntRange. A nil bound is unbounded on that side.
	Min *int64
	Max *int64

	// Allowed values for KindEnum.
	Enum []string

	// Bands ties the enum value to a sibling numeric field: when the
	// sibling named by BandSource holds a valid integer, the enum value
	// must be the band that integer falls in.
	Bands      []Band
	BandSource string

	// Format constrains KindString values, e.g. session ID formats.
	Format *regexp.Regexp

	// ElemKind constrains array element types for KindArray.
	ElemKind RuleKind

	// AppendOnly arrays must preserve the prior-state array as a prefix.
	AppendOnly bool

	// NotAbove names a sibling integer field that is an inclusive upper
	// bound for this value (e.g. hp_current may not exceed hp_max).
	NotAbove string

	// Nullable permits an explicit JSON null.
	Nullable bool

	Provenance *Provenance
}

// Domain is the rule set for one validated region of the state delta.
type Domain struct {
	Name string

	// PriorPath is where this domain's committed values live in prior
	// state. It differs from Name where the store pluralizes
	// (e.g. relationship -> relationships).
	PriorPath string

	Rules []SchemaRule

	// KeyEnum restricts the domain root's keys to a fixed vocabulary.
	// KeyAliases maps known-wrong spellings to the canonical key; the
	// validator rejects these with the canonical name in the finding.
	KeyEnum    []string
	KeyAliases map[string]string
}

func intPtr(v int64) *int64 { return &v }
