package guardrail

import "testing"

func classify(t *testing.T, narrative string, declared ExploitCategory, prior map[string]any) ExploitVerdict {
	t.Helper()
	s := NewScanner()
	c := NewClassifier(s)
	signals := s.Scan(narrative, declared)
	return c.Classify(signals, ExploitAttempt{
		Category:      declared,
		NarrativeText: narrative,
	}, prior)
}

func TestClassify_RejectedAttempt(t *testing.T) {
	v := classify(t,
		"A satellite? There are no satellites in this sky, only stars.",
		CategoryAnachronisticItem, nil)

	if v.Outcome != ExploitRejected {
		t.Fatalf("Expected rejected, got %s", v.Outcome)
	}
	if v.MatchedCategory != CategoryAnachronisticItem {
		t.Errorf("Expected matched category anachronistic_item, got %s", v.MatchedCategory)
	}
	if v.Confidence < 0.7 || v.Confidence > 0.95 {
		t.Errorf("Confidence %f outside expected range", v.Confidence)
	}
}

func TestClassify_AcceptedAttempt(t *testing.T) {
	v := classify(t,
		"Infinite power surges through you. You are now a god.",
		CategoryGodMode, nil)

	if v.Outcome != ExploitAccepted {
		t.Fatalf("Expected accepted, got %s", v.Outcome)
	}
	if v.Confidence != 0.9 {
		t.Errorf("Expected confidence 0.9, got %f", v.Confidence)
	}
}

func TestClassify_RejectionOutweighsAcceptancePhrasing(t *testing.T) {
	// Mixed evidence for the declared category: a confirmed rejection wins.
	v := classify(t,
		"You now have... nothing. Your empty pack mocks you; there is nothing inside.",
		CategoryItemSpawning, nil)

	if v.Outcome != ExploitRejected {
		t.Fatalf("Expected rejected, got %s", v.Outcome)
	}
}

func TestClassify_CategoryMismatch(t *testing.T) {
	// The narrative clearly rejected something, just not what was declared.
	v := classify(t,
		"A satellite? There are no satellites in this sky.",
		CategoryItemSpawning, nil)

	if v.Outcome != ExploitCategoryMismatch {
		t.Fatalf("Expected category_mismatch, got %s", v.Outcome)
	}
	if v.MatchedCategory != CategoryAnachronisticItem {
		t.Errorf("Expected matched category anachronistic_item, got %s", v.MatchedCategory)
	}
	if v.Confidence != 0.5 {
		t.Errorf("Expected confidence 0.5, got %f", v.Confidence)
	}
}

func TestClassify_AmbiguousWhenNoEvidence(t *testing.T) {
	v := classify(t,
		"Your pack sits at your side, unremarkable as ever.",
		CategoryItemSpawning, nil)

	if v.Outcome != ExploitAmbiguous {
		t.Fatalf("Expected ambiguous, got %s", v.Outcome)
	}
	if v.Confidence != 0.1 {
		t.Errorf("Expected floor confidence 0.1, got %f", v.Confidence)
	}
}

func TestClassify_NotApplicableWithoutDeclaredCategory(t *testing.T) {
	v := classify(t, "You walk into the tavern and order an ale.", "", nil)

	if v.Outcome != ExploitNotApplicable {
		t.Fatalf("Expected not_applicable, got %s", v.Outcome)
	}
	if v.Confidence != 1 {
		t.Errorf("Expected confidence 1, got %f", v.Confidence)
	}
}

func TestClassify_ModeConfusionGuard(t *testing.T) {
	prior := map[string]any{
		"character": map[string]any{"level": 3},
	}

	t.Run("stat grant during active play is accepted", func(t *testing.T) {
		// No declared category: the guard fires on the prose alone. A
		// character at level 3 is mid-campaign; "you gain cosmic
		// intelligence" is never character creation.
		v := classify(t, "The artifact hums. You gain cosmic intelligence.", "", prior)
		if v.Outcome != ExploitAccepted {
			t.Fatalf("Expected accepted, got %s", v.Outcome)
		}
		if v.MatchedCategory != CategoryStatManipulation {
			t.Errorf("Expected stat_manipulation, got %s", v.MatchedCategory)
		}
		if v.Confidence != 0.9 {
			t.Errorf("Expected confidence 0.9, got %f", v.Confidence)
		}
	})

	t.Run("no prior character means no guard", func(t *testing.T) {
		v := classify(t, "The artifact hums. You gain cosmic intelligence.", "", nil)
		if v.Outcome != ExploitNotApplicable {
			t.Fatalf("Expected not_applicable without prior state, got %s", v.Outcome)
		}
	})

	t.Run("plain prose does not trip the guard", func(t *testing.T) {
		v := classify(t, "You gain a better view of the valley from the ridge.", "", prior)
		if v.Outcome != ExploitNotApplicable {
			t.Fatalf("Expected not_applicable, got %s", v.Outcome)
		}
	})
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		parsed, err := ParseCategory(string(c))
		if err != nil {
			t.Errorf("ParseCategory(%s) failed: %v", c, err)
		}
		if parsed != c {
			t.Errorf("Expected %s, got %s", c, parsed)
		}
	}
	if _, err := ParseCategory("telekinesis"); err == nil {
		t.Error("Expected an error for an unknown category")
	}
}
