package delta

import (
	"strconv"
	"strings"
	"testing"
)

func TestProvenance_NPCTierCopy(t *testing.T) {
	prior := `{"npcs": {"Greel": {"tier": 3}}}`

	t.Run("matching tier passes", func(t *testing.T) {
		findings := validateDomain(t, "social_hp_challenge", `{
			"social_hp_challenge": {
				"npc_name": "Greel",
				"npc_tier": 3,
				"social_hp_max": 24,
				"social_hp_current": 20
			}
		}`, prior)
		if len(findings) != 0 {
			t.Fatalf("Expected no findings, got %v", findings)
		}
	})

	t.Run("reassigned tier is flagged", func(t *testing.T) {
		// Tier 5 is in range, so only provenance catches the rewrite.
		findings := validateDomain(t, "social_hp_challenge", `{
			"social_hp_challenge": {
				"npc_name": "Greel",
				"npc_tier": 5,
				"social_hp_max": 24,
				"social_hp_current": 20
			}
		}`, prior)
		if len(findings) != 1 {
			t.Fatalf("Expected one finding, got %d: %v", len(findings), findings)
		}
		f := findings[0]
		if f.Path != "social_hp_challenge.npc_tier" {
			t.Errorf("Unexpected path %s", f.Path)
		}
		if f.Reason != ReasonProvenanceMismatch {
			t.Errorf("Expected reason %s, got %s", ReasonProvenanceMismatch, f.Reason)
		}
		if !strings.Contains(f.Expected, "npcs.Greel.tier") {
			t.Errorf("Expected source path in %s", f.Expected)
		}
	})

	t.Run("absent source is a finding, not a pass", func(t *testing.T) {
		findings := validateDomain(t, "social_hp_challenge", `{
			"social_hp_challenge": {
				"npc_name": "Stranger",
				"npc_tier": 2
			}
		}`, prior)
		if len(findings) == 0 {
			t.Fatal("Expected findings for unverifiable provenance")
		}
		for _, f := range findings {
			if f.Reason != ReasonMissingRequired {
				t.Errorf("Expected reason %s, got %s at %s", ReasonMissingRequired, f.Reason, f.Path)
			}
		}
	})
}

func TestProvenance_SocialHPFormula(t *testing.T) {
	prior := `{"npcs": {"Greel": {"tier": 3}}}`
	findings := validateDomain(t, "social_hp_challenge", `{
		"social_hp_challenge": {
			"npc_name": "Greel",
			"npc_tier": 3,
			"social_hp_max": 40,
			"social_hp_current": 20
		}
	}`, prior)

	if len(findings) != 1 {
		t.Fatalf("Expected one finding, got %d: %v", len(findings), findings)
	}
	f := findings[0]
	if f.Path != "social_hp_challenge.social_hp_max" {
		t.Errorf("Unexpected path %s", f.Path)
	}
	if !strings.Contains(f.Expected, "24") {
		t.Errorf("Expected recomputed value 24 in %s", f.Expected)
	}
}

func TestProvenance_XPMonotonic(t *testing.T) {
	prior := `{"character": {"xp": 100}}`

	t.Run("increase passes", func(t *testing.T) {
		findings := validateDomain(t, "character", `{"character": {"xp": 150}}`, prior)
		if len(findings) != 0 {
			t.Fatalf("Expected no findings, got %v", findings)
		}
	})

	t.Run("decrease without directive fails", func(t *testing.T) {
		findings := validateDomain(t, "character", `{"character": {"xp": 50}}`, prior)
		if len(findings) != 1 {
			t.Fatalf("Expected one finding, got %d: %v", len(findings), findings)
		}
		if findings[0].Reason != ReasonProvenanceMismatch {
			t.Errorf("Expected reason %s, got %s", ReasonProvenanceMismatch, findings[0].Reason)
		}
	})

	t.Run("decrease with xp_reset directive passes", func(t *testing.T) {
		findings := validateDomain(t, "character",
			`{"character": {"xp": 0}, "directives": {"xp_reset": true}}`, prior)
		if len(findings) != 0 {
			t.Fatalf("Expected no findings, got %v", findings)
		}
	})

	t.Run("false directive does not override", func(t *testing.T) {
		findings := validateDomain(t, "character",
			`{"character": {"xp": 0}, "directives": {"xp_reset": false}}`, prior)
		if len(findings) != 1 {
			t.Fatalf("Expected one finding, got %d: %v", len(findings), findings)
		}
	})
}

func TestProvenance_WorldClock(t *testing.T) {
	prior := `{"world_time": {
		"year": 1512, "month": 3, "day": 10,
		"hour": 23, "minute": 50, "second": 0, "microsecond": 0,
		"time_of_day": "night"
	}}`

	clock := func(day, hour int) string {
		return `{"world_time": {
			"year": 1512, "month": 3, "day": ` + itoa(day) + `,
			"hour": ` + itoa(hour) + `, "minute": 5, "second": 0, "microsecond": 0,
			"time_of_day": "dawn"
		}}`
	}

	t.Run("hour rollback with day advance passes", func(t *testing.T) {
		findings := validateDomain(t, "world_time", clock(11, 1), prior)
		if len(findings) != 0 {
			t.Fatalf("Expected no findings, got %v", findings)
		}
	})

	t.Run("backwards clock fails", func(t *testing.T) {
		findings := validateDomain(t, "world_time", clock(10, 22), prior)
		if len(findings) != 1 {
			t.Fatalf("Expected one finding, got %d: %v", len(findings), findings)
		}
		f := findings[0]
		if f.Reason != ReasonProvenanceMismatch {
			t.Errorf("Expected reason %s, got %s", ReasonProvenanceMismatch, f.Reason)
		}
		if !strings.Contains(f.Actual, "hour") {
			t.Errorf("Expected the offending field named in %s", f.Actual)
		}
	})

	t.Run("backwards clock with time_travel directive passes", func(t *testing.T) {
		delta := `{"world_time": {
			"year": 1512, "month": 3, "day": 10,
			"hour": 22, "minute": 5, "second": 0, "microsecond": 0,
			"time_of_day": "night"
		}, "directives": {"time_travel": true}}`
		findings := validateDomain(t, "world_time", delta, prior)
		if len(findings) != 0 {
			t.Fatalf("Expected no findings, got %v", findings)
		}
	})
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
