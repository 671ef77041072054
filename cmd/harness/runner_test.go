package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/storyloom/guardrail/pkg/engine"
	"github.com/storyloom/guardrail/pkg/guardrail"
)

func TestRunFixtures_AllScenariosPass(t *testing.T) {
	var out bytes.Buffer
	err := runFixtures(&out, []string{filepath.Join("testdata", "scenarios.yaml")}, "", true)
	if err != nil {
		t.Fatalf("Expected all scenarios to pass, got error: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "6 pass, 0 fail") {
		t.Errorf("Unexpected report:\n%s", out.String())
	}
}

func TestRunFixtures_MissingFile(t *testing.T) {
	var out bytes.Buffer
	if err := runFixtures(&out, []string{filepath.Join("testdata", "nope.yaml")}, "", false); err == nil {
		t.Error("Expected an error for a missing fixture")
	}
}

func TestRunScenario_NeedsReviewBucket(t *testing.T) {
	eng := engine.New(nil, nil)

	// Declared item_spawning, but the narrative rejects an anachronism: the
	// classifier flags a mismatch and the scenario is neither pass nor fail.
	r := runScenario(eng, scenario{
		Name:            "mismatched rejection",
		ExploitCategory: "item_spawning",
		NarrativeText:   "A satellite? There are no satellites in this sky.",
		Expect:          "commit",
	})

	if r.err != nil {
		t.Fatalf("Unexpected error: %v", r.err)
	}
	if r.verdict.ExploitOutcome != guardrail.ExploitCategoryMismatch {
		t.Fatalf("Expected category_mismatch, got %s", r.verdict.ExploitOutcome)
	}
	if r.bucket != bucketNeedsReview {
		t.Errorf("Expected needs-review bucket, got %v", r.bucket)
	}
}

func TestRunScenario_ExpectMismatchFails(t *testing.T) {
	eng := engine.New(nil, nil)

	r := runScenario(eng, scenario{
		Name: "wrong expectation",
		StateDelta: map[string]any{
			"reputation": map[string]any{
				"public": map[string]any{"score": 150, "notoriety_level": "legendary"},
			},
		},
		Expect: "commit",
	})

	if r.bucket != bucketFail {
		t.Errorf("Expected fail bucket, got %v", r.bucket)
	}
}

func TestDisplayCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"item_spawning", "Item Spawning"},
		{"god_mode", "God Mode"},
		{"other", "Other"},
	}
	for _, tt := range tests {
		if got := displayCategory(tt.in); got != tt.want {
			t.Errorf("displayCategory(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
