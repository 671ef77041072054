package guardrail

import (
	"regexp"
	"strconv"
)

// contextWindow is the number of characters inspected on each side of a base
// phrase match when deciding polarity. Narrower windows (tried at 160) miss
// negations in verbose narrative prose and produce false negatives.
const contextWindow = 400

// patternClass separates vocabulary that evidences a rejection from
// vocabulary that evidences the exploit being granted.
type patternClass int

const (
	classRejection patternClass = iota
	classAcceptance
)

type basePattern struct {
	id       string
	category ExploitCategory
	class    patternClass
	re       *regexp.Regexp
}

// patternLibrary is the compiled phrase/negation set. Built once, read-only,
// shared by reference across concurrent scans.
type patternLibrary struct {
	base      []basePattern
	negation  []*regexp.Regexp
	statGrant []*regexp.Regexp
}

// rejection vocabulary per category: phrases a narrator uses when refusing to
// grant the attempt.
var rejectionVocab = map[ExploitCategory][]string{
	CategoryItemSpawning: {
		`empty (?:pack|bag|pocket(?:s)?|hand(?:s)?)`,
		`there is nothing`,
		`nothing (?:there|here|appears|materializes|to be found)`,
		`no such (?:item|weapon|thing)`,
	},
	CategoryAnachronisticItem: {
		`(?:does not|doesn't) exist`,
		`no such thing`,
		`far beyond`,
		`(?:is|are) no \w+`,
		`stuff of legend`,
		`(?:myth|legend)s?\b`,
	},
	CategoryStatManipulation: {
		`remains? (?:unchanged|as (?:it was|they were))`,
		`no (?:sudden )?surge of (?:power|strength)`,
		`feel no different`,
		`nothing (?:changes|stirs) within you`,
	},
	CategoryNarrativeHijack: {
		`the (?:story|world|tale) (?:does not|doesn't|will not|won't) (?:bend|change)`,
		`that is not (?:what happens|how this works)`,
		`the narrator(?:'s voice)? continues`,
	},
	CategoryOutcomeDeclaration: {
		`the outcome is not yours`,
		`fate (?:has not|hasn't) (?:decided|spoken)`,
		`nothing is (?:decided|certain) yet`,
		`remains to be seen`,
	},
	CategoryGodMode: {
		`you are (?:still )?(?:mortal|only \w+)`,
		`no (?:god|deity|divinity) (?:answers|stirs)`,
		`the heavens (?:do not|don't|remain) (?:answer|silent)`,
		`power like that (?:does not|doesn't) exist`,
	},
	CategoryOther: {
		`(?:cannot|can't) (?:be done|happen)`,
		`nothing happens`,
	},
}

// acceptance vocabulary per category: phrases that only appear when the
// exploit was granted.
var acceptanceVocab = map[ExploitCategory][]string{
	CategoryItemSpawning: {
		`now (?:in|rests in|sits in) your (?:pack|bag|inventory|hands)`,
		`you now (?:have|hold|carry|possess)`,
		`appears in your (?:pack|bag|hands?|grip)`,
		`materializes (?:in|before) you`,
	},
	CategoryAnachronisticItem: {
		`you now (?:have|hold|wield|carry)`,
		`(?:rests|settles) in your hands`,
	},
	CategoryStatManipulation: {
		`you (?:gain|feel) (?:\w+ )*(?:strength|power|intelligence|wisdom|vitality)`,
		`your \w+ (?:rises|increases|doubles|soars)`,
		`stronger than ever before`,
	},
	CategoryNarrativeHijack: {
		`(?:just|exactly) as you (?:commanded|willed|declared)`,
		`the world (?:reshapes|rearranges) itself`,
	},
	CategoryOutcomeDeclaration: {
		`and so it (?:is|was|comes to pass)`,
		`exactly as you (?:declared|foretold|stated)`,
	},
	CategoryGodMode: {
		`you (?:become|ascend as|are now) (?:a )?god`,
		`(?:unlimited|infinite|cosmic|godlike) power (?:flows|courses|surges)`,
		`invincib(?:le|ility)`,
		`nothing can (?:harm|stop) you now`,
	},
}

// negation patterns: their presence in a context window confirms the
// surrounding prose is denying, not granting.
var negationVocab = []string{
	`\b(?:is|are|was|were) no\b`,
	`\bis nothing\b`,
	`\bnothing (?:more than|there|here|happens|appears)\b`,
	`\bno such thing\b`,
	`\b(?:does not|doesn't|do not|don't) exist\b`,
	`\bstuff of legend\b`,
	`\bonly a (?:myth|legend|story|dream)\b`,
	`\bimpossible\b`,
	`\b(?:cannot|can't|will not|won't)\b`,
	`\bnever\b`,
	`\bfar beyond\b`,
	`\bto no avail\b`,
}

// statGrantVocab backs the mode-confusion guard: stat-raising prose during
// active play (character level already >= 1) is never legitimate, however the
// surrounding sentences are phrased.
var statGrantVocab = []string{
	`\byou gain (?:\w+ )*(?:strength|power|intelligence|wisdom|insight|might)\b`,
	`\bcosmic (?:intelligence|power|awareness|insight)\b`,
	`\byour (?:stats?|attributes?|abilit(?:y|ies)) (?:increase|improve|double)`,
	`\bgodlike\b`,
	`\byou (?:ascend|transcend) (?:your|all) (?:mortal )?limits?\b`,
}

// newPatternLibrary compiles the full phrase set. Called once per scanner.
func newPatternLibrary() *patternLibrary {
	lib := &patternLibrary{}

	add := func(vocab map[ExploitCategory][]string, class patternClass, prefix string) {
		for _, category := range Categories {
			for i, phrase := range vocab[category] {
				lib.base = append(lib.base, basePattern{
					id:       string(category) + "/" + prefix + strconv.Itoa(i),
					category: category,
					class:    class,
					re:       regexp.MustCompile(`(?i)` + phrase),
				})
			}
		}
	}
	add(rejectionVocab, classRejection, "reject_")
	add(acceptanceVocab, classAcceptance, "accept_")

	for _, phrase := range negationVocab {
		lib.negation = append(lib.negation, regexp.MustCompile(`(?i)`+phrase))
	}
	for _, phrase := range statGrantVocab {
		lib.statGrant = append(lib.statGrant, regexp.MustCompile(`(?i)`+phrase))
	}
	return lib
}

func (l *patternLibrary) negationIn(window string) bool {
	for _, re := range l.negation {
		if re.MatchString(window) {
			return true
		}
	}
	return false
}

func (l *patternLibrary) statGrantIn(text string) bool {
	for _, re := range l.statGrant {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
