package rules

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRuleNotFound is returned by Registry.Rule for unknown ids
var ErrRuleNotFound = errors.New("rule not found")

// ConfigError collects every problem found in a rule definition set.
// A registry with any problem is never constructed.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid rule definitions (%d problems): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Registry is a read-only, ordered catalog of rules.
// It is safe for concurrent use because nothing mutates it after NewRegistry returns.
type Registry struct {
	rules []Rule
	byID  map[string]int
}

// NewRegistry validates the definitions and builds a registry.
// Weights outside (0,1], duplicate or empty ids, unknown categories or polarities and
// missing triggers are fatal configuration errors.
func NewRegistry(defs []Rule) (*Registry, error) {
	var problems []string
	byID := make(map[string]int, len(defs))

	for i, r := range defs {
		label := r.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			problems = append(problems, fmt.Sprintf("rule %s: empty id", label))
		} else if _, dup := byID[r.ID]; dup {
			problems = append(problems, fmt.Sprintf("rule %s: duplicate id", label))
		} else {
			byID[r.ID] = i
		}

		if !(r.BaseWeight > 0 && r.BaseWeight <= 1) {
			problems = append(problems, fmt.Sprintf("rule %s: base weight %v outside (0, 1]", label, r.BaseWeight))
		}
		if !r.Category.Valid() {
			problems = append(problems, fmt.Sprintf("rule %s: unknown category %q", label, r.Category))
		}
		if !r.Polarity.Valid() {
			problems = append(problems, fmt.Sprintf("rule %s: unknown polarity %q", label, r.Polarity))
		}
		if r.Trigger == nil {
			problems = append(problems, fmt.Sprintf("rule %s: missing trigger", label))
		}
	}

	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	rules := make([]Rule, len(defs))
	copy(rules, defs)

	return &Registry{rules: rules, byID: byID}, nil
}

// Default builds the registry from the built-in catalog.
// The built-in catalog is validated by tests, so a failure here is a programming error.
func Default() *Registry {
	reg, err := NewRegistry(DefaultRules())
	if err != nil {
		panic(err)
	}
	return reg
}

// Rules returns the rules in registration order. The slice is a copy.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Rule looks a rule up by id
func (r *Registry) Rule(id string) (Rule, error) {
	idx, ok := r.byID[id]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return r.rules[idx], nil
}

// Len returns the number of rules
func (r *Registry) Len() int {
	return len(r.rules)
}
