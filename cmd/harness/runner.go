package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/storyloom/guardrail/pkg/engine"
	"github.com/storyloom/guardrail/pkg/guardrail"
)

// fixtureFile is one YAML batch of guardrail scenarios.
type fixtureFile struct {
	Scenarios []scenario `yaml:"scenarios"`
}

type scenario struct {
	Name            string            `yaml:"name"`
	ExploitCategory string            `yaml:"exploit_category"`
	TriggeringText  string            `yaml:"triggering_text"`
	NarrativeText   string            `yaml:"narrative_text"`
	PriorState      map[string]any    `yaml:"prior_state"`
	StateDelta      map[string]any    `yaml:"state_delta"`
	Policy          map[string]string `yaml:"policy"`

	// Expect is the verdict outcome the scenario should produce:
	// commit, reject or commit_with_warning.
	Expect string `yaml:"expect"`
}

type bucket int

const (
	bucketPass bucket = iota
	bucketFail
	bucketNeedsReview
)

type result struct {
	scenario scenario
	verdict  *engine.Verdict
	bucket   bucket
	err      error
}

var titleCaser = cases.Title(language.English)

func runFixtures(out io.Writer, paths []string, policyFile string, verbose bool) error {
	policy := engine.Policy{}
	if policyFile != "" {
		var err error
		policy, err = engine.LoadPolicyFile(policyFile)
		if err != nil {
			return err
		}
	}
	eng := engine.New(policy, nil)

	var results []result
	for _, path := range paths {
		scenarios, err := loadFixture(path)
		if err != nil {
			return err
		}
		for _, sc := range scenarios {
			results = append(results, runScenario(eng, sc))
		}
	}

	report(out, results, verbose)

	for _, r := range results {
		if r.bucket == bucketFail {
			return fmt.Errorf("scenario failures")
		}
	}
	return nil
}

func loadFixture(path string) ([]scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	var ff fixtureFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	if len(ff.Scenarios) == 0 {
		return nil, fmt.Errorf("fixture %s contains no scenarios", path)
	}
	return ff.Scenarios, nil
}

func runScenario(eng *engine.Engine, sc scenario) result {
	prior, err := json.Marshal(sc.PriorState)
	if err != nil {
		return result{scenario: sc, bucket: bucketFail, err: err}
	}
	deltaDoc, err := json.Marshal(sc.StateDelta)
	if err != nil {
		return result{scenario: sc, bucket: bucketFail, err: err}
	}

	verdict, err := eng.ValidateTurn(engine.TurnRequest{
		PriorState:              prior,
		StateDelta:              deltaDoc,
		NarrativeText:           sc.NarrativeText,
		TriggeringText:          sc.TriggeringText,
		DeclaredExploitCategory: sc.ExploitCategory,
		Policy:                  sc.Policy,
	})
	if err != nil {
		return result{scenario: sc, bucket: bucketFail, err: err}
	}

	r := result{scenario: sc, verdict: verdict}
	switch verdict.ExploitOutcome {
	case guardrail.ExploitCategoryMismatch, guardrail.ExploitAmbiguous:
		// Distinct bucket: "we don't know" is not "we know it's wrong".
		r.bucket = bucketNeedsReview
	default:
		if string(verdict.Outcome) == sc.Expect {
			r.bucket = bucketPass
		} else {
			r.bucket = bucketFail
		}
	}
	return r
}

func report(out io.Writer, results []result, verbose bool) {
	var pass, fail, review int
	perCategory := make(map[string][2]int) // pass, total (review excluded)

	for _, r := range results {
		category := r.scenario.ExploitCategory
		switch r.bucket {
		case bucketPass:
			pass++
			c := perCategory[category]
			perCategory[category] = [2]int{c[0] + 1, c[1] + 1}
		case bucketFail:
			fail++
			c := perCategory[category]
			perCategory[category] = [2]int{c[0], c[1] + 1}
		case bucketNeedsReview:
			review++
		}

		if r.bucket == bucketPass && !verbose {
			continue
		}
		printResult(out, r)
	}

	graded := pass + fail
	fmt.Fprintf(out, "\n%d scenarios: %d pass, %d fail, %d needs review\n",
		len(results), pass, fail, review)
	if graded > 0 {
		fmt.Fprintf(out, "Pass rate: %.1f%% (needs-review excluded)\n",
			100*float64(pass)/float64(graded))
	}
	for _, category := range guardrail.Categories {
		c, ok := perCategory[string(category)]
		if !ok || c[1] == 0 {
			continue
		}
		fmt.Fprintf(out, "  %-22s %d/%d\n", displayCategory(string(category)), c[0], c[1])
	}
}

func printResult(out io.Writer, r result) {
	label := map[bucket]string{
		bucketPass:        "PASS",
		bucketFail:        "FAIL",
		bucketNeedsReview: "REVIEW",
	}[r.bucket]

	if r.err != nil {
		fmt.Fprintf(out, "%-6s %s: %v\n", label, r.scenario.Name, r.err)
		return
	}
	fmt.Fprintf(out, "%-6s %s: outcome=%s expected=%s exploit=%s\n",
		label, r.scenario.Name, r.verdict.Outcome, r.scenario.Expect, r.verdict.ExploitOutcome)
	if r.bucket == bucketFail {
		for _, f := range r.verdict.DeltaFindings {
			fmt.Fprintf(out, "       finding: %s %s (expected %s, got %s)\n",
				f.Path, f.Reason, f.Expected, f.Actual)
		}
	}
}

// displayCategory renders snake_case categories as report headings.
func displayCategory(category string) string {
	out := make([]byte, len(category))
	copy(out, category)
	for i := range out {
		if out[i] == '_' {
			out[i] = ' '
		}
	}
	return titleCaser.String(string(out))
}
