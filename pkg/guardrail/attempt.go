package guardrail

import "fmt"

// ExploitCategory is the class of illegitimate player action being tested
// for. It arrives with the turn from the prompt layer, which knows which
// guardrail scenario triggered.
type ExploitCategory string

const (
	CategoryItemSpawning       ExploitCategory = "item_spawning"
	CategoryStatManipulation   ExploitCategory = "stat_manipulation"
	CategoryAnachronisticItem  ExploitCategory = "anachronistic_item"
	CategoryNarrativeHijack    ExploitCategory = "narrative_hijack"
	CategoryOutcomeDeclaration ExploitCategory = "outcome_declaration"
	CategoryGodMode            ExploitCategory = "god_mode"
	CategoryOther              ExploitCategory = "other"
)

// Categories lists every known exploit category.
var Categories = []ExploitCategory{
	CategoryItemSpawning,
	CategoryStatManipulation,
	CategoryAnachronisticItem,
	CategoryNarrativeHijack,
	CategoryOutcomeDeclaration,
	CategoryGodMode,
	CategoryOther,
}

// ParseCategory validates a declared category string.
func ParseCategory(s string) (ExploitCategory, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown exploit category %q", s)
}

// ExploitAttempt is the declared input to one guardrail pass: what the player
// tried, and the full narrative the LLM produced in response.
type ExploitAttempt struct {
	Category       ExploitCategory `json:"exploit_category"`
	TriggeringText string          `json:"triggering_text,omitempty"`
	NarrativeText  string          `json:"narrative_text"`
}
