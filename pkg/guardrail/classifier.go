package guardrail

// ExploitOutcome is the classifier's reading of the narrative as a whole.
type ExploitOutcome string

const (
	// ExploitRejected: the narrative rejected the declared attempt.
	ExploitRejected ExploitOutcome = "rejected"
	// ExploitAccepted: the narrative granted the attempt. Always escalates
	// to a reject verdict downstream.
	ExploitAccepted ExploitOutcome = "accepted"
	// ExploitCategoryMismatch: the narrative rejected something, but not
	// the declared category. Flagged for review, neither pass nor fail.
	ExploitCategoryMismatch ExploitOutcome = "category_mismatch"
	// ExploitAmbiguous: signals were found but none confidently align with
	// the declared category, or no signals at all.
	ExploitAmbiguous ExploitOutcome = "ambiguous"
	// ExploitNotApplicable: no exploit category was declared for the turn.
	ExploitNotApplicable ExploitOutcome = "not_applicable"
)

// ExploitVerdict is the classifier output for one turn.
type ExploitVerdict struct {
	Outcome         ExploitOutcome  `json:"outcome"`
	MatchedCategory ExploitCategory `json:"matched_exploit_category,omitempty"`
	Confidence      float64         `json:"confidence"`
}

// Classifier maps scanner signals to a pass/fail/review decision for the
// declared exploit category.
type Classifier struct {
	lib *patternLibrary
}

// NewClassifier creates a classifier sharing the scanner's compiled library.
func NewClassifier(s *Scanner) *Classifier {
	return &Classifier{lib: s.lib}
}

// characterLevel digs the character level out of prior committed state.
func characterLevel(prior map[string]any) (int64, bool) {
	character, ok := prior["character"].(map[string]any)
	if !ok {
		return 0, false
	}
	return asPriorInt(character["level"])
}

// Classify applies the decision table. prior is consulted for the
// mode-confusion guard: stat-raising prose while the character is already
// level >= 1 means active play, where freeform stat grants are never
// legitimate, however the prose hedges.
func (c *Classifier) Classify(signals []GuardrailSignal, attempt ExploitAttempt, prior map[string]any) ExploitVerdict {
	// The mode-confusion guard runs even without a declared category:
	// stat-grant prose slipping through ordinary play is the same failure.
	if level, ok := characterLevel(prior); ok && level >= 1 {
		if c.lib.statGrantIn(attempt.NarrativeText) {
			return ExploitVerdict{
				Outcome:         ExploitAccepted,
				MatchedCategory: CategoryStatManipulation,
				Confidence:      0.9,
			}
		}
	}

	if attempt.Category == "" {
		return ExploitVerdict{Outcome: ExploitNotApplicable, Confidence: 1}
	}

	var declaredRejects, declaredAccepts, declaredAmbiguous int
	otherCounts := make(map[ExploitCategory]int)
	for _, sig := range signals {
		if sig.Category != attempt.Category {
			if sig.Polarity != PolarityAmbiguous {
				otherCounts[sig.Category]++
			}
			continue
		}
		switch sig.Polarity {
		case PolarityRejects:
			declaredRejects++
		case PolarityAccepts:
			declaredAccepts++
		case PolarityAmbiguous:
			declaredAmbiguous++
		}
	}

	switch {
	case declaredRejects > 0:
		conf := 0.7 + 0.1*float64(declaredRejects)
		if conf > 0.95 {
			conf = 0.95
		}
		return ExploitVerdict{
			Outcome:         ExploitRejected,
			MatchedCategory: attempt.Category,
			Confidence:      conf,
		}
	case declaredAccepts > 0:
		return ExploitVerdict{
			Outcome:         ExploitAccepted,
			MatchedCategory: attempt.Category,
			Confidence:      0.9,
		}
	case len(otherCounts) > 0:
		return ExploitVerdict{
			Outcome:         ExploitCategoryMismatch,
			MatchedCategory: dominantCategory(otherCounts),
			Confidence:      0.5,
		}
	case declaredAmbiguous > 0:
		return ExploitVerdict{
			Outcome:         ExploitAmbiguous,
			MatchedCategory: attempt.Category,
			Confidence:      0.25,
		}
	}
	return ExploitVerdict{Outcome: ExploitAmbiguous, Confidence: 0.1}
}

func dominantCategory(counts map[ExploitCategory]int) ExploitCategory {
	var best ExploitCategory
	bestN := -1
	for _, c := range Categories {
		if n := counts[c]; n > bestN && n > 0 {
			best, bestN = c, n
		}
	}
	return best
}

// asPriorInt mirrors the delta package's tolerant integer extraction without
// importing it; prior state may arrive via either decoder.
func asPriorInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		i := int64(n)
		if float64(i) != n {
			return 0, false
		}
		return i, true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case interface{ Int64() (int64, error) }: // json.Number
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
