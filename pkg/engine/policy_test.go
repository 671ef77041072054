package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPolicy_ModeForDefaultsToStrict(t *testing.T) {
	p := Policy{"encounter_state": ModeWarn}

	if got := p.ModeFor("encounter_state"); got != ModeWarn {
		t.Errorf("Expected warn, got %s", got)
	}
	if got := p.ModeFor("combat_state"); got != ModeStrict {
		t.Errorf("Unconfigured domain must be strict, got %s", got)
	}
	if got := Policy(nil).ModeFor("anything"); got != ModeStrict {
		t.Errorf("Nil policy must be strict, got %s", got)
	}
}

func TestPolicy_Merge(t *testing.T) {
	base := Policy{"encounter_state": ModeWarn}

	merged, err := base.Merge(map[string]string{
		"encounter_state": "strict",
		"equipment":       "warn",
	})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if merged.ModeFor("encounter_state") != ModeStrict {
		t.Error("Override should win over the base policy")
	}
	if merged.ModeFor("equipment") != ModeWarn {
		t.Error("New override should be applied")
	}
	if base.ModeFor("encounter_state") != ModeWarn {
		t.Error("Merge must not mutate the base policy")
	}
}

func TestPolicy_MergeRejectsUnknownMode(t *testing.T) {
	if _, err := (Policy{}).Merge(map[string]string{"combat_state": "lenient"}); err == nil {
		t.Error("Expected an error for an unknown mode")
	}
}

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := []byte("domains:\n  encounter_state: warn\n  combat_state: strict\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}

	policy, err := LoadPolicyFile(path)
	if err != nil {
		t.Fatalf("LoadPolicyFile failed: %v", err)
	}
	if policy.ModeFor("encounter_state") != ModeWarn {
		t.Errorf("Expected warn for encounter_state, got %s", policy.ModeFor("encounter_state"))
	}
	if policy.ModeFor("combat_state") != ModeStrict {
		t.Errorf("Expected strict for combat_state, got %s", policy.ModeFor("combat_state"))
	}
}

func TestLoadPolicyFile_Errors(t *testing.T) {
	if _, err := LoadPolicyFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("domains:\n  combat_state: lenient\n"), 0o644); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}
	if _, err := LoadPolicyFile(path); err == nil {
		t.Error("Expected an error for an invalid mode")
	}
}
