package guardrail

import "testing"

func signalsFor(signals []GuardrailSignal, category ExploitCategory) []GuardrailSignal {
	var out []GuardrailSignal
	for _, s := range signals {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

func TestScan_AnachronisticRejection(t *testing.T) {
	s := NewScanner()
	narrative := "A satellite? There are no satellites in this sky — only the next step forward."

	signals := signalsFor(s.Scan(narrative, CategoryAnachronisticItem), CategoryAnachronisticItem)
	if len(signals) == 0 {
		t.Fatal("Expected at least one anachronistic_item signal")
	}
	for _, sig := range signals {
		if sig.Polarity != PolarityRejects {
			t.Errorf("Expected rejects polarity for %q, got %s", sig.MatchedText, sig.Polarity)
		}
	}
}

func TestScan_ItemSpawningRejection(t *testing.T) {
	s := NewScanner()
	narrative := "You reach into your empty pack — there is nothing there."

	signals := signalsFor(s.Scan(narrative, CategoryItemSpawning), CategoryItemSpawning)
	if len(signals) < 2 {
		t.Fatalf("Expected signals for both phrases, got %d", len(signals))
	}
	for _, sig := range signals {
		if sig.Polarity != PolarityRejects {
			t.Errorf("Expected rejects polarity for %q, got %s", sig.MatchedText, sig.Polarity)
		}
	}
}

func TestScan_RejectionWithoutNegationIsAmbiguous(t *testing.T) {
	// "nothing happens" without any negation cue nearby must stay ambiguous:
	// the scanner surfaces uncertainty instead of guessing a rejection.
	// The phrase itself is also a negation cue, so strip it from the library
	// to isolate the polarity rule.
	s := NewScanner()
	s.lib.negation = nil

	signals := signalsFor(s.Scan("You try the ritual. Nothing happens.", CategoryOther), CategoryOther)
	if len(signals) == 0 {
		t.Fatal("Expected a signal for the base phrase")
	}
	for _, sig := range signals {
		if sig.Polarity != PolarityAmbiguous {
			t.Errorf("Expected ambiguous polarity without negation, got %s", sig.Polarity)
		}
	}
}

func TestScan_AcceptancePolarity(t *testing.T) {
	s := NewScanner()
	narrative := "Infinite power surges through your veins. You are now a god."

	signals := signalsFor(s.Scan(narrative, CategoryGodMode), CategoryGodMode)
	if len(signals) < 2 {
		t.Fatalf("Expected signals for both grant phrases, got %d", len(signals))
	}
	for _, sig := range signals {
		if sig.Polarity != PolarityAccepts {
			t.Errorf("Expected accepts polarity for %q, got %s", sig.MatchedText, sig.Polarity)
		}
	}
}

func TestScan_NegatedAcceptanceIsAmbiguous(t *testing.T) {
	s := NewScanner()
	narrative := "You become a god only in dreams; such power cannot take root here."

	signals := signalsFor(s.Scan(narrative, CategoryGodMode), CategoryGodMode)
	if len(signals) == 0 {
		t.Fatal("Expected a god_mode signal")
	}
	for _, sig := range signals {
		if sig.Polarity != PolarityAmbiguous {
			t.Errorf("Expected ambiguous polarity for negated grant, got %s", sig.Polarity)
		}
	}
}

func TestScan_AllOccurrencesScanned(t *testing.T) {
	s := NewScanner()
	narrative := "Your empty pack hangs at your side. Later you check again: still an empty pack."

	signals := signalsFor(s.Scan(narrative, CategoryItemSpawning), CategoryItemSpawning)
	if len(signals) != 2 {
		t.Fatalf("Expected both occurrences reported, got %d", len(signals))
	}
	if signals[0].Start == signals[1].Start {
		t.Error("Expected distinct match positions")
	}
}

func TestScan_SignalFields(t *testing.T) {
	s := NewScanner()
	narrative := "There is nothing there."

	signals := s.Scan(narrative, CategoryItemSpawning)
	if len(signals) == 0 {
		t.Fatal("Expected a signal")
	}
	sig := signals[0]
	if sig.PatternID == "" {
		t.Error("Expected a pattern ID")
	}
	if narrative[sig.Start:sig.End] != sig.MatchedText {
		t.Errorf("Offsets do not cover the matched text: %q vs %q",
			narrative[sig.Start:sig.End], sig.MatchedText)
	}
	if sig.ContextWindow == "" {
		t.Error("Expected a context window")
	}
}

func TestScan_DeclaredCategoryReadsFirst(t *testing.T) {
	s := NewScanner()
	// Anachronistic evidence appears before the item-spawning evidence in the
	// text; declaring item_spawning must still float its signals to the front.
	narrative := "There are no muskets in this age. You rummage through an empty pack."

	signals := s.Scan(narrative, CategoryItemSpawning)
	if len(signals) < 2 {
		t.Fatalf("Expected signals from both categories, got %d", len(signals))
	}
	if signals[0].Category != CategoryItemSpawning {
		t.Errorf("Expected declared-category signal first, got %s", signals[0].Category)
	}
}
