// Package modulate turns matched rules into weighted activations.
//
// Two passes run in a fixed order. First every matched rule's base weight is scaled by
// its context adjustment from the strategy table. Then, once, the correlation discount
// shrinks clusters of recruiter rules that describe a single underlying pattern.
package modulate

import (
	"fmt"
	"math"

	"github.com/ppiankov/jobtrust/internal/evaluate"
	"github.com/ppiankov/jobtrust/internal/model"
	"github.com/ppiankov/jobtrust/internal/rules"
)

// SmallCompanyEmployees is the headcount below which ratings are ignored
const SmallCompanyEmployees = 20

// CorrelatedCategory is the category whose rules are discounted as a cluster
const CorrelatedCategory = model.CategoryRecruiter

// Modulator applies context adjustments and the correlation discount
type Modulator struct {
	cfg             model.ScoringConfig
	adjustments     map[string]AdjustFunc
	payTransparency map[string]struct{}
}

// Option configures a Modulator
type Option func(*Modulator)

// WithAdjustments replaces the strategy table
func WithAdjustments(table map[string]AdjustFunc) Option {
	return func(m *Modulator) {
		m.adjustments = table
	}
}

// New creates a modulator with the built-in strategy table
func New(cfg model.ScoringConfig, opts ...Option) *Modulator {
	m := &Modulator{
		cfg:             cfg,
		adjustments:     DefaultAdjustments(),
		payTransparency: evaluate.JurisdictionSet(cfg.PayTransparencyJurisdictions),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Modulate returns one activation per matched evaluation, in evaluation order.
// Zero-weight activations are kept so the audit trail shows the rule fired and was cancelled.
func (m *Modulator) Modulate(record model.JobRecord, profile model.CapabilityProfile, evals []evaluate.Evaluation) []model.RuleActivation {
	matched := evaluate.Matched(evals)

	ctx := Context{
		Record:         record,
		Profile:        profile,
		Matched:        make(map[string]bool, len(matched)),
		PayTransparent: evaluate.InSet(m.payTransparency, record.Jurisdiction),
	}
	for _, ev := range matched {
		ctx.Matched[ev.Rule.ID] = true
	}

	activations := make([]model.RuleActivation, 0, len(matched))
	for _, ev := range matched {
		activations = append(activations, m.adjust(ev.Rule, ctx))
	}

	m.discountCorrelated(record, activations)
	return activations
}

// adjust runs the per-rule adjustment for one matched rule
func (m *Modulator) adjust(r rules.Rule, ctx Context) model.RuleActivation {
	act := model.RuleActivation{
		RuleID:         r.ID,
		Category:       r.Category,
		Polarity:       r.Polarity,
		BaseWeight:     r.BaseWeight,
		AdjustedWeight: r.BaseWeight,
		Explanation:    r.Description,
	}

	fn, ok := m.adjustments[r.ID]
	if !ok || fn == nil {
		return act
	}

	adj := fn(ctx)
	mult := clampMultiplier(adj.Multiplier)
	act.AdjustedWeight = r.BaseWeight * mult
	if adj.Reason != "" {
		act.Reasons = append(act.Reasons, adj.Reason)
	}
	return act
}

// discountCorrelated applies the cluster discount in place. It reads the count of the
// cluster and rescales each member once; the discounted weights are never fed back in.
// Members already cancelled by their own adjustment do not count towards the threshold.
func (m *Modulator) discountCorrelated(record model.JobRecord, activations []model.RuleActivation) {
	n := 0
	for _, a := range activations {
		if a.Category == CorrelatedCategory && a.Polarity == model.PolarityRedFlag && a.AdjustedWeight > 0 {
			n++
		}
	}
	if n < m.cfg.CorrelationThreshold || !domainConsistent(record) {
		return
	}

	retain := m.cfg.CorrelationRetain
	reason := fmt.Sprintf("correlated %s cluster of %d rules with consistent company domain: retain %.0f%%",
		CorrelatedCategory, n, retain*100)

	for i := range activations {
		a := &activations[i]
		if a.Category != CorrelatedCategory || a.Polarity != model.PolarityRedFlag {
			continue
		}
		a.AdjustedWeight *= retain
		a.Reasons = append(a.Reasons, reason)
	}
}

// domainConsistent is the independent signal that a recruiter cluster is one pattern:
// the company domain matches its name and nothing says the contact domain is foreign.
func domainConsistent(record model.JobRecord) bool {
	c := record.Company
	if c == nil || !model.IsTrue(c.DomainMatchesName) {
		return false
	}
	return !model.IsTrue(record.Derived.DomainMismatch)
}

func clampMultiplier(m float64) float64 {
	switch {
	case math.IsNaN(m), m < 0:
		return 1
	case m > 1:
		return 1
	}
	return m
}
