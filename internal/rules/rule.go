// Package rules holds the immutable catalog of weighted trust heuristics.
package rules

import (
	"github.com/ppiankov/jobtrust/internal/model"
)

// Outcome is the result of running a rule's trigger against a record.
type Outcome int

const (
	// NotMatched means the rule was checked and did not fire.
	NotMatched Outcome = iota
	// Matched means the rule fired.
	Matched
	// Inapplicable means the rule could not be checked (missing data or capability gating).
	// It contributes nothing and appears nowhere in the output.
	Inapplicable
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Inapplicable:
		return "inapplicable"
	default:
		return "not_matched"
	}
}

// Input is what a trigger sees: the record, its plain-text description and the resolved profile.
type Input struct {
	Record         model.JobRecord
	Text           string // Description after HTML stripping; empty when the record has none
	Profile        model.CapabilityProfile
	PayTransparent bool // Record's jurisdiction mandates salary disclosure
}

// Trigger decides whether a rule fires. Triggers are pure and must not panic on absent fields.
type Trigger func(in Input) Outcome

// Rule is a named, weighted heuristic predicate over a job record.
type Rule struct {
	ID             string
	Category       model.Category
	BaseWeight     float64
	Polarity       model.Polarity
	AbsenceTrigger bool   // Fires on missing data rather than on a present value
	Description    string // Rendered into red_flags / positive_signals
	Trigger        Trigger
}

// when maps a condition over a present value to an outcome.
func when(cond bool) Outcome {
	if cond {
		return Matched
	}
	return NotMatched
}

// intAtLeast is the numeric-threshold helper: absent values are inapplicable, never zero.
func intAtLeast(v *int, cutoff int) Outcome {
	if v == nil {
		return Inapplicable
	}
	return when(*v >= cutoff)
}

func intBelow(v *int, cutoff int) Outcome {
	if v == nil {
		return Inapplicable
	}
	return when(*v < cutoff)
}

func intAbove(v *int, cutoff int) Outcome {
	if v == nil {
		return Inapplicable
	}
	return when(*v > cutoff)
}

func isTrue(b *bool) Outcome {
	if b == nil {
		return Inapplicable
	}
	return when(*b)
}

func isFalse(b *bool) Outcome {
	if b == nil {
		return Inapplicable
	}
	return when(!*b)
}
