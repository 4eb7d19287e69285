// Package score fuses weighted rule activations into the final trust verdict.
package score

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ppiankov/jobtrust/internal/model"
)

// Scorer aggregates activations into a ScoreResult. It is stateless apart from
// its configuration and clock, so one Scorer serves any number of goroutines.
type Scorer struct {
	cfg model.ScoringConfig
	now func() time.Time
}

// NewScorer creates a new scorer. A nil clock means time.Now in UTC.
func NewScorer(cfg model.ScoringConfig, now func() time.Time) *Scorer {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Scorer{cfg: cfg, now: now}
}

// Fuse computes score, level, confidence and the explanation lists
func (s *Scorer) Fuse(record model.JobRecord, activations []model.RuleActivation) model.ScoreResult {
	redTotal, posTotal := Totals(activations)

	// 1. Score: ceiling minus scaled red flags plus the smaller positive bonus
	score := s.calculateScore(redTotal, posTotal)

	// 2. Level from fixed thresholds
	level := s.classify(score)

	// 3. Confidence from coverage and signal strength, then elevation
	coverage := record.Coverage()
	_, confidence := s.determineConfidence(coverage, activations)

	// 4. Explanations and audit entries, activation order
	redFlags := make([]string, 0)
	positives := make([]string, 0)
	audit := make([]model.ActivatedRule, 0, len(activations))

	for _, a := range activations {
		audit = append(audit, model.ActivatedRule{
			ID:         a.RuleID,
			Weight:     round(a.AdjustedWeight, 4),
			Confidence: s.ruleConfidence(a.AdjustedWeight),
		})

		if a.AdjustedWeight <= 0 {
			continue
		}
		if a.Polarity == model.PolarityRedFlag {
			redFlags = append(redFlags, explain(a))
		} else {
			positives = append(positives, explain(a))
		}
	}

	acts := make([]model.RuleActivation, len(activations))
	copy(acts, activations)

	return model.ScoreResult{
		Score:           score,
		Level:           level,
		Confidence:      confidence,
		Summary:         summarize(score, level, confidence, len(redFlags), len(positives)),
		RedFlags:        redFlags,
		PositiveSignals: positives,
		ActivatedRules:  audit,
		Coverage:        round(coverage, 2),
		ComputedAt:      s.now(),
		Activations:     acts,
	}
}

// Totals sums adjusted weights per polarity
func Totals(activations []model.RuleActivation) (red, positive float64) {
	for _, a := range activations {
		switch a.Polarity {
		case model.PolarityRedFlag:
			red += a.AdjustedWeight
		case model.PolarityPositive:
			positive += a.AdjustedWeight
		}
	}
	return red, positive
}

// calculateScore computes clamp(100 - N*red + B*positive, 0, 100), rounded to one decimal
func (s *Scorer) calculateScore(red, positive float64) float64 {
	raw := 100 - s.cfg.Normalization*red + s.cfg.PositiveBonus*positive
	raw = math.Max(0, math.Min(100, raw))
	return round(raw, 1)
}

// classify maps a score to its level
func (s *Scorer) classify(score float64) model.Level {
	switch {
	case score >= s.cfg.LikelyRealThreshold:
		return model.LevelLikelyReal
	case score <= s.cfg.LikelyFakeThreshold:
		return model.LevelLikelyFake
	default:
		return model.LevelUncertain
	}
}

// ruleConfidence tags a single activation by its final weight
func (s *Scorer) ruleConfidence(weight float64) model.Confidence {
	switch {
	case weight > s.cfg.StrongWeight:
		return model.ConfidenceHigh
	case weight >= s.cfg.MediumWeight:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func explain(a model.RuleActivation) string {
	text := a.Explanation
	if text == "" {
		text = a.RuleID
	}
	if len(a.Reasons) == 0 {
		return fmt.Sprintf("%s (weight %.2f)", text, a.AdjustedWeight)
	}
	return fmt.Sprintf("%s (weight %.2f; %s)", text, a.AdjustedWeight, strings.Join(a.Reasons, "; "))
}

func summarize(score float64, level model.Level, confidence model.Confidence, reds, positives int) string {
	return fmt.Sprintf("%s%s: score %.1f/100 with %s confidence (%d red %s, %d positive %s)",
		strings.ToUpper(level.String()[:1]), level.String()[1:], score, confidence,
		reds, plural(reds, "flag", "flags"), positives, plural(positives, "signal", "signals"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
