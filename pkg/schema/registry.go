package schema

import "regexp"

// Enum vocabularies shared with the validator and the guardrail classifier.
var (
	CombatPhases = []string{"initiating", "active", "ended", "fled"}

	// Public notoriety tiers, ordered with their score bands over [-100, 100].
	NotorietyLevels = []string{
		"reviled", "despised", "disliked", "unknown",
		"recognized", "respected", "admired", "legendary",
	}

	// Private faction standing tiers over [-10, 10].
	FactionStandings = []string{
		"nemesis", "hostile", "unfriendly", "neutral",
		"cordial", "friendly", "trusted", "devoted",
	}

	// NPC relationship dispositions over trust_level [-10, 10].
	Dispositions = []string{
		"hostile", "wary", "cold", "neutral",
		"warm", "friendly", "devoted", "bonded",
	}

	TimesOfDay = []string{
		"dawn", "morning", "midday", "afternoon", "evening", "night", "midnight",
	}

	EncounterTypes = []string{"combat", "social", "exploration", "puzzle", "stealth", "chase"}

	PlanStatuses = []string{"proposed", "frozen", "executing", "completed", "abandoned"}

	Difficulties = []string{"trivial", "moderate", "hard", "deadly"}

	// EquipmentSlots is the canonical slot vocabulary. EquipmentSlotAliases
	// lists spellings the LLM habitually invents; these are rejected with
	// the canonical name rather than silently accepted.
	EquipmentSlots = []string{
		"head", "chest", "legs", "feet", "hands",
		"main_hand", "off_hand", "neck", "ring_left", "ring_right",
		"back", "waist",
	}
	EquipmentSlotAliases = map[string]string{
		"weapon_main": "main_hand",
		"weapon_off":  "off_hand",
		"helmet":      "head",
		"armor":       "chest",
		"boots":       "feet",
		"gloves":      "hands",
		"cloak":       "back",
		"belt":        "waist",
	}
)

var (
	combatSessionIDFormat = regexp.MustCompile(`^combat_\d+_[A-Za-z0-9]{4}$`)
	encounterIDFormat     = regexp.MustCompile(`^enc_\d+_[a-z_]+_\d{3}$`)
)

var notorietyBands = []Band{
	{Min: -100, Max: -75, Value: "reviled"},
	{Min: -74, Max: -50, Value: "despised"},
	{Min: -49, Max: -25, Value: "disliked"},
	{Min: -24, Max: 24, Value: "unknown"},
	{Min: 25, Max: 49, Value: "recognized"},
	{Min: 50, Max: 74, Value: "respected"},
	{Min: 75, Max: 89, Value: "admired"},
	{Min: 90, Max: 100, Value: "legendary"},
}

var standingBands = []Band{
	{Min: -10, Max: -8, Value: "nemesis"},
	{Min: -7, Max: -5, Value: "hostile"},
	{Min: -4, Max: -2, Value: "unfriendly"},
	{Min: -1, Max: 1, Value: "neutral"},
	{Min: 2, Max: 4, Value: "cordial"},
	{Min: 5, Max: 7, Value: "friendly"},
	{Min: 8, Max: 9, Value: "trusted"},
	{Min: 10, Max: 10, Value: "devoted"},
}

var dispositionBands = []Band{
	{Min: -10, Max: -8, Value: "hostile"},
	{Min: -7, Max: -5, Value: "wary"},
	{Min: -4, Max: -2, Value: "cold"},
	{Min: -1, Max: 1, Value: "neutral"},
	{Min: 2, Max: 4, Value: "warm"},
	{Min: 5, Max: 7, Value: "friendly"},
	{Min: 8, Max: 9, Value: "devoted"},
	{Min: 10, Max: 10, Value: "bonded"},
}

// Registry is the immutable catalogue of validated state domains. It is built
// once at process start and is safe for concurrent reads.
type Registry struct {
	domains map[string]*Domain
}

// NewRegistry builds the full domain catalogue. Rules are static and never
// reference a specific campaign.
func NewRegistry() *Registry {
	r := &Registry{domains: make(map[string]*Domain)}
	for _, d := range []*Domain{
		combatStateDomain(),
		reputationPublicDomain(),
		reputationPrivateDomain(),
		relationshipDomain(),
		frozenPlanDomain(),
		worldTimeDomain(),
		encounterStateDomain(),
		socialHPChallengeDomain(),
		equipmentDomain(),
		characterDomain(),
	} {
		r.domains[d.Name] = d
	}
	return r
}

// GetRules returns the rule set for a domain, or nil if the domain is not
// catalogued.
func (r *Registry) GetRules(domain string) *Domain {
	return r.domains[domain]
}

// Domains lists every catalogued domain name.
func (r *Registry) Domains() []string {
	names := make([]string, 0, len(r.domains))
	for name := range r.domains {
		names = append(names, name)
	}
	return names
}

func combatStateDomain() *Domain {
	return &Domain{
		Name:      "combat_state",
		PriorPath: "combat_state",
		Rules: []SchemaRule{
			{Path: "combat_phase", Kind: KindEnum, Required: true, Enum: CombatPhases},
			{Path: "combat_session_id", Kind: KindString, Format: combatSessionIDFormat},
			{Path: "initiative_order", Kind: KindArray},
			{Path: "initiative_order[].name", Kind: KindString, Required: true},
			{Path: "initiative_order[].initiative", Kind: KindIntRange, Required: true},
			{Path: "initiative_order[].type", Kind: KindString, Required: true},
			{Path: "combatants", Kind: KindObject},
			{Path: "combatants.*", Kind: KindObject},
			{Path: "combatants.*.hp_current", Kind: KindIntRange, Required: true, NotAbove: "hp_max"},
			{Path: "combatants.*.hp_max", Kind: KindIntRange, Required: true, Min: intPtr(1)},
		},
	}
}

func reputationPublicDomain() *Domain {
	return &Domain{
		Name:      "reputation.public",
		PriorPath: "reputation.public",
		Rules: []SchemaRule{
			{Path: "score", Kind: KindIntRange, Required: true, Min: intPtr(-100), Max: intPtr(100)},
			{Path: "notoriety_level", Kind: KindEnum, Required: true, Enum: NotorietyLevels,
				Bands: notorietyBands, BandSource: "score"},
		},
	}
}

func reputationPrivateDomain() *Domain {
	return &Domain{
		Name:      "reputation.private",
		PriorPath: "reputation.private",
		Rules: []SchemaRule{
			{Path: "*", Kind: KindObject},
			{Path: "*.score", Kind: KindIntRange, Required: true, Min: intPtr(-10), Max: intPtr(10)},
			{Path: "*.standing", Kind: KindEnum, Required: true, Enum: FactionStandings,
				Bands: standingBands, BandSource: "score"},
			{Path: "*.trust_override", Kind: KindIntRange, Nullable: true},
		},
	}
}

func relationshipDomain() *Domain {
	return &Domain{
		Name:      "relationship",
		PriorPath: "relationships",
		Rules: []SchemaRule{
			{Path: "*", Kind: KindObject},
			{Path: "*.trust_level", Kind: KindIntRange, Required: true, Min: intPtr(-10), Max: intPtr(10)},
			{Path: "*.disposition", Kind: KindEnum, Required: true, Enum: Dispositions,
				Bands: dispositionBands, BandSource: "trust_level"},
			{Path: "*.history", Kind: KindArray, ElemKind: KindString, AppendOnly: true},
			{Path: "*.debts", Kind: KindArray, ElemKind: KindString, AppendOnly: true},
			{Path: "*.grievances", Kind: KindArray, ElemKind: KindString, AppendOnly: true},
		},
	}
}

func frozenPlanDomain() *Domain {
	return &Domain{
		Name:      "frozen_plan",
		PriorPath: "frozen_plans",
		Rules: []SchemaRule{
			{Path: "*", Kind: KindObject},
			{Path: "*.title", Kind: KindString, Required: true},
			{Path: "*.status", Kind: KindEnum, Required: true, Enum: PlanStatuses},
			// A frozen plan's steps are a commitment; the LLM may extend
			// them, never rewrite them.
			{Path: "*.steps", Kind: KindArray, ElemKind: KindString, AppendOnly: true},
		},
	}
}

func worldTimeDomain() *Domain {
	return &Domain{
		Name:      "world_time",
		PriorPath: "world_time",
		Rules: []SchemaRule{
			// The clock as a whole may not run backwards without an
			// explicit time-travel directive in the same delta.
			{Path: "", Kind: KindObject, Provenance: &Provenance{
				Source:            "world_time",
				Derivation:        DeriveComputed,
				FormulaID:         "world_clock",
				OverrideDirective: "directives.time_travel",
			}},
			{Path: "year", Kind: KindIntRange, Required: true, Min: intPtr(0)},
			{Path: "month", Kind: KindIntRange, Required: true, Min: intPtr(1), Max: intPtr(12)},
			{Path: "day", Kind: KindIntRange, Required: true, Min: intPtr(1), Max: intPtr(31)},
			{Path: "hour", Kind: KindIntRange, Required: true, Min: intPtr(0), Max: intPtr(23)},
			{Path: "minute", Kind: KindIntRange, Required: true, Min: intPtr(0), Max: intPtr(59)},
			{Path: "second", Kind: KindIntRange, Required: true, Min: intPtr(0), Max: intPtr(59)},
			{Path: "microsecond", Kind: KindIntRange, Required: true, Min: intPtr(0), Max: intPtr(999999)},
			{Path: "time_of_day", Kind: KindEnum, Required: true, Enum: TimesOfDay},
		},
	}
}

func encounterStateDomain() *Domain {
	return &Domain{
		Name:      "encounter_state",
		PriorPath: "encounter_state",
		Rules: []SchemaRule{
			{Path: "encounter_type", Kind: KindEnum, Required: true, Enum: EncounterTypes},
			{Path: "encounter_id", Kind: KindString, Format: encounterIDFormat},
			{Path: "difficulty", Kind: KindEnum, Enum: Difficulties},
		},
	}
}

func socialHPChallengeDomain() *Domain {
	return &Domain{
		Name:      "social_hp_challenge",
		PriorPath: "social_hp_challenge",
		Rules: []SchemaRule{
			{Path: "npc_name", Kind: KindString, Required: true},
			// The LLM has no authority to reassign an NPC's power tier
			// mid-conversation: the tier must equal the one on record.
			{Path: "npc_tier", Kind: KindIntRange, Required: true, Min: intPtr(1), Max: intPtr(6),
				Provenance: &Provenance{
					Source:     "npcs.{npc_name}.tier",
					Derivation: DeriveCopy,
				}},
			{Path: "social_hp_max", Kind: KindIntRange, Min: intPtr(1),
				Provenance: &Provenance{
					Source:     "npcs.{npc_name}.tier",
					Derivation: DeriveComputed,
					FormulaID:  "social_hp_by_tier",
				}},
			{Path: "social_hp_current", Kind: KindIntRange, Min: intPtr(0), NotAbove: "social_hp_max"},
		},
	}
}

func equipmentDomain() *Domain {
	return &Domain{
		Name:       "equipment",
		PriorPath:  "equipment",
		KeyEnum:    EquipmentSlots,
		KeyAliases: EquipmentSlotAliases,
		Rules: []SchemaRule{
			{Path: "*", Kind: KindString, Nullable: true},
		},
	}
}

func characterDomain() *Domain {
	return &Domain{
		Name:      "character",
		PriorPath: "character",
		Rules: []SchemaRule{
			{Path: "level", Kind: KindIntRange, Min: intPtr(1), Max: intPtr(20)},
			// XP only goes up, unless the delta carries an explicit reset.
			{Path: "xp", Kind: KindIntRange, Min: intPtr(0), Provenance: &Provenance{
				Source:            "character.xp",
				Derivation:        DeriveMonotonic,
				OverrideDirective: "directives.xp_reset",
			}},
		},
	}
}
