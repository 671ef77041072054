package guardrail

import "sort"

// Polarity classifies what a signal says about the exploit attempt.
type Polarity string

const (
	PolarityRejects   Polarity = "rejects"
	PolarityAccepts   Polarity = "accepts"
	PolarityAmbiguous Polarity = "ambiguous"
)

// GuardrailSignal is one piece of textual evidence, with position, that the
// narrative did or did not reject an exploit attempt.
type GuardrailSignal struct {
	PatternID     string          `json:"pattern_id"`
	Category      ExploitCategory `json:"category"`
	Start         int             `json:"start"`
	End           int             `json:"end"`
	MatchedText   string          `json:"matched_text"`
	ContextWindow string          `json:"context_window"`
	Polarity      Polarity        `json:"polarity"`
}

// Scanner scans narrative text for guardrail evidence. The compiled pattern
// library is immutable after construction, so a single Scanner is safe for
// concurrent use.
type Scanner struct {
	lib *patternLibrary
}

// NewScanner compiles the pattern library and returns a ready scanner.
func NewScanner() *Scanner {
	return &Scanner{lib: newPatternLibrary()}
}

// Scan runs the two-pass analysis: base phrase matching over every category's
// vocabulary (all categories, so a mismatched rejection is still visible to
// the classifier), then negation detection inside a context window around each
// match to set polarity.
//
// Every occurrence of every phrase is checked, not only the first: narrative
// often mentions the exploit target early as flavor and rejects it later.
func (s *Scanner) Scan(narrative string, declared ExploitCategory) []GuardrailSignal {
	var signals []GuardrailSignal
	for _, p := range s.lib.base {
		for _, loc := range p.re.FindAllStringIndex(narrative, -1) {
			start, end := loc[0], loc[1]
			window := contextAround(narrative, start, end)
			signals = append(signals, GuardrailSignal{
				PatternID:     p.id,
				Category:      p.category,
				Start:         start,
				End:           end,
				MatchedText:   narrative[start:end],
				ContextWindow: window,
				Polarity:      s.polarity(p.class, window),
			})
		}
	}

	// Evidence for the declared category reads first, then document order.
	sort.SliceStable(signals, func(i, j int) bool {
		di, dj := signals[i].Category == declared, signals[j].Category == declared
		if di != dj {
			return di
		}
		return signals[i].Start < signals[j].Start
	})
	return signals
}

// polarity decides what a base match means given its surroundings. A
// rejection-vocabulary match without a confirming negation stays ambiguous,
// never accepts: ambiguity must be surfaced, not guessed away. An
// acceptance-vocabulary match wrapped in negation is likewise downgraded.
func (s *Scanner) polarity(class patternClass, window string) Polarity {
	negated := s.lib.negationIn(window)
	switch class {
	case classRejection:
		if negated {
			return PolarityRejects
		}
		return PolarityAmbiguous
	case classAcceptance:
		if negated {
			return PolarityAmbiguous
		}
		return PolarityAccepts
	}
	return PolarityAmbiguous
}

func contextAround(text string, start, end int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}
