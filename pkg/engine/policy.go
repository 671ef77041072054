package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode is the per-domain enforcement mode: strict blocks commits on any
// error finding; warn logs and commits anyway. Warn exists for new or
// low-priority domains during rollout.
type Mode string

const (
	ModeStrict Mode = "strict"
	ModeWarn   Mode = "warn"
)

// Policy maps schema domains to enforcement modes. Domains without an entry
// are strict: an unconfigured domain must fail safe.
type Policy map[string]Mode

// ModeFor returns the enforcement mode for a domain.
func (p Policy) ModeFor(domain string) Mode {
	if mode, ok := p[domain]; ok {
		return mode
	}
	return ModeStrict
}

// Merge overlays per-request overrides (string-valued, as they arrive on the
// wire) onto the base policy and validates the mode names.
func (p Policy) Merge(overrides map[string]string) (Policy, error) {
	if len(overrides) == 0 {
		return p, nil
	}
	merged := make(Policy, len(p)+len(overrides))
	for domain, mode := range p {
		merged[domain] = mode
	}
	for domain, mode := range overrides {
		switch Mode(mode) {
		case ModeStrict, ModeWarn:
			merged[domain] = Mode(mode)
		default:
			return nil, fmt.Errorf("invalid policy mode %q for domain %s", mode, domain)
		}
	}
	return merged, nil
}

type policyFile struct {
	Domains map[string]string `yaml:"domains"`
}

// LoadPolicyFile reads a YAML policy of the form:
//
//	domains:
//	  combat_state: strict
//	  encounter_state: warn
func LoadPolicyFile(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	policy := Policy{}
	return policy.Merge(pf.Domains)
}
