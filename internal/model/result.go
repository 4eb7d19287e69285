package model

import (
	"strings"
	"time"
)

// CapabilityProfile describes what a (platform, collection method) pair is expected to supply.
// It is resolved fresh for every evaluation.
type CapabilityProfile struct {
	PosterExpected           bool `json:"poster_expected" yaml:"poster_expected"`
	CompanyInfoExpected      bool `json:"company_info_expected" yaml:"company_info_expected"`
	RecruiterRulesApplicable bool `json:"recruiter_rules_applicable" yaml:"recruiter_rules_applicable"`
}

// Category groups rules that look at the same underlying evidence.
type Category string

const (
	CategoryRecruiter  Category = "recruiter"  // Poster/recruiter behaviour patterns
	CategoryDisclosure Category = "disclosure" // Information the posting should carry but does not
	CategoryContent    Category = "content"    // Description text patterns
	CategoryStaleness  Category = "staleness"  // Age, reposting, hiring activity
	CategoryReputation Category = "reputation" // External company reputation
)

// Categories is the closed set of rule categories.
func Categories() []Category {
	return []Category{CategoryRecruiter, CategoryDisclosure, CategoryContent, CategoryStaleness, CategoryReputation}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Polarity says whether a rule lowers or raises trust.
type Polarity string

const (
	PolarityRedFlag  Polarity = "red_flag"
	PolarityPositive Polarity = "positive_signal"
)

// Valid reports whether p is a known polarity.
func (p Polarity) Valid() bool {
	return p == PolarityRedFlag || p == PolarityPositive
}

// Level is the three-tier classification of a score.
type Level string

const (
	LevelLikelyReal Level = "likely_real"
	LevelUncertain  Level = "uncertain"
	LevelLikelyFake Level = "likely_fake"
)

func (l Level) String() string {
	switch l {
	case LevelLikelyReal:
		return "likely real"
	case LevelLikelyFake:
		return "likely fake"
	default:
		return "uncertain"
	}
}

// Confidence is how much the score should be trusted.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// Rank orders confidence values so elevation can be expressed as max().
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// MaxConfidence returns the higher of two confidence values.
func MaxConfidence(a, b Confidence) Confidence {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// RuleActivation is a matched rule after weight modulation.
type RuleActivation struct {
	RuleID         string   `json:"rule_id"`
	Category       Category `json:"category"`
	Polarity       Polarity `json:"polarity"`
	BaseWeight     float64  `json:"base_weight"`
	AdjustedWeight float64  `json:"adjusted_weight"`
	Reasons        []string `json:"reasons,omitempty"`     // Adjustments applied, in order
	Explanation    string   `json:"explanation,omitempty"` // Human-readable description of the rule
}

// ActivatedRule is the audit entry for one activation in the output contract.
type ActivatedRule struct {
	ID         string     `json:"id"`
	Weight     float64    `json:"weight"`
	Confidence Confidence `json:"confidence"`
}

// ScoreResult is the engine output. It is built once per call and never mutated afterwards.
type ScoreResult struct {
	Score           float64         `json:"authenticity_score"`
	Level           Level           `json:"level"`
	Confidence      Confidence      `json:"confidence"`
	Summary         string          `json:"summary"`
	RedFlags        []string        `json:"red_flags"`
	PositiveSignals []string        `json:"positive_signals"`
	ActivatedRules  []ActivatedRule `json:"activated_rules"`
	Coverage        float64         `json:"coverage"`
	ComputedAt      time.Time       `json:"computed_at"`

	// Activations carries the full modulation trail. It is not part of the wire contract.
	Activations []RuleActivation `json:"-"`
}

// ParseLevel converts a stored level string back into a Level.
func ParseLevel(s string) (Level, bool) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelLikelyReal:
		return LevelLikelyReal, true
	case LevelUncertain:
		return LevelUncertain, true
	case LevelLikelyFake:
		return LevelLikelyFake, true
	}
	return "", false
}
