// Package category holds the static table that maps transaction categories
// to bookkeeping ledger accounts and their VAT treatment.
package category

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

type VATTreatment string

const (
	VATTreatmentLow  VATTreatment = "9%"
	VATTreatmentNone VATTreatment = "none"
)

// Rule describes how a category is booked. A nil LedgerAccount marks a pure
// cash movement that never reaches the journal.
type Rule struct {
	Key           string       `yaml:"key"`
	LedgerAccount *string      `yaml:"ledger_account"`
	Label         string       `yaml:"label"`
	VAT           VATTreatment `yaml:"vat"`
}

// Rules is immutable after construction and safe for concurrent use.
type Rules struct {
	byKey map[string]Rule
}

// Default returns the embedded rules table.
func Default() (*Rules, error) {
	r, err := Parse(defaultRules)
	if err != nil {
		return nil, fmt.Errorf("Default: %w", err)
	}
	return r, nil
}

// Load reads a rules table from a YAML file, falling back to the embedded
// table when path is empty.
func Load(path string) (*Rules, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Load: read %s: %w", path, err)
	}

	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("Load: %s: %w", path, err)
	}
	return r, nil
}

func Parse(data []byte) (*Rules, error) {
	var list []Rule
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}
	return New(list)
}

func New(list []Rule) (*Rules, error) {
	byKey := make(map[string]Rule, len(list))
	for i, rule := range list {
		if rule.Key == "" {
			return nil, fmt.Errorf("New: rule %d: empty key", i)
		}
		if _, dup := byKey[rule.Key]; dup {
			return nil, fmt.Errorf("New: duplicate key %q", rule.Key)
		}
		if rule.VAT == "" {
			rule.VAT = VATTreatmentNone
		}
		if rule.VAT != VATTreatmentLow && rule.VAT != VATTreatmentNone {
			return nil, fmt.Errorf("New: rule %q: vat must be 9%% or none, got %q", rule.Key, rule.VAT)
		}
		if rule.LedgerAccount != nil && *rule.LedgerAccount == "" {
			rule.LedgerAccount = nil
		}
		byKey[rule.Key] = rule
	}
	return &Rules{byKey: byKey}, nil
}

func (r *Rules) Resolve(key string) (Rule, bool) {
	rule, ok := r.byKey[key]
	return rule, ok
}

// All returns the rules sorted by key.
func (r *Rules) All() []Rule {
	out := make([]Rule, 0, len(r.byKey))
	for _, rule := range r.byKey {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
