// Package evaluate runs the rule catalog against a job record.
package evaluate

import (
	"strings"

	"github.com/ppiankov/jobtrust/internal/extract"
	"github.com/ppiankov/jobtrust/internal/model"
	"github.com/ppiankov/jobtrust/internal/rules"
)

// Evaluation is the outcome of one rule against one record
type Evaluation struct {
	Rule    rules.Rule
	Outcome rules.Outcome
}

// Evaluator decides which rules fire for a record. It holds only read-only state.
type Evaluator struct {
	registry        *rules.Registry
	payTransparency map[string]struct{}
}

// New creates an evaluator over a registry. jurisdictions lists the regions where
// salary disclosure is mandatory; matching is case-insensitive.
func New(registry *rules.Registry, jurisdictions []string) *Evaluator {
	return &Evaluator{
		registry:        registry,
		payTransparency: JurisdictionSet(jurisdictions),
	}
}

// Evaluate returns one Evaluation per rule, in registry order.
// The description is stripped of HTML once and shared by every text rule.
func (e *Evaluator) Evaluate(record model.JobRecord, profile model.CapabilityProfile) []Evaluation {
	in := rules.Input{
		Record:         record,
		Text:           extract.PlainText(record.Description),
		Profile:        profile,
		PayTransparent: InSet(e.payTransparency, record.Jurisdiction),
	}

	all := e.registry.Rules()
	out := make([]Evaluation, 0, len(all))
	for _, r := range all {
		out = append(out, Evaluation{Rule: r, Outcome: r.Trigger(in)})
	}
	return out
}

// Matched filters evaluations down to the rules that fired, keeping order
func Matched(evals []Evaluation) []Evaluation {
	out := make([]Evaluation, 0, len(evals))
	for _, ev := range evals {
		if ev.Outcome == rules.Matched {
			out = append(out, ev)
		}
	}
	return out
}

// Count returns how many evaluations ended with the given outcome
func Count(evals []Evaluation, outcome rules.Outcome) int {
	n := 0
	for _, ev := range evals {
		if ev.Outcome == outcome {
			n++
		}
	}
	return n
}

// JurisdictionSet normalizes a jurisdiction list into a lookup set
func JurisdictionSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if c = normalizeJurisdiction(c); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}

// InSet reports whether a record's jurisdiction is in the set. Empty jurisdictions never are.
func InSet(set map[string]struct{}, jurisdiction string) bool {
	j := normalizeJurisdiction(jurisdiction)
	if j == "" {
		return false
	}
	_, ok := set[j]
	return ok
}

func normalizeJurisdiction(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "_", "-")
}
