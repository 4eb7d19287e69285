package score

import "github.com/ppiankov/jobtrust/internal/model"

// determineConfidence returns the base confidence and the final, elevated one.
// Elevation only ever raises: final = max(base, every elevation that applies).
func (s *Scorer) determineConfidence(coverage float64, activations []model.RuleActivation) (base, final model.Confidence) {
	reds, strong := s.redFlagStrength(activations)

	base = s.baseConfidence(coverage, strong)
	final = base

	// Clean, well-described record: nothing strong fired and almost every field is present
	if coverage >= s.cfg.HighCoverage && !strong {
		final = model.MaxConfidence(final, model.ConfidenceHigh)
	}

	// Many weak, mutually consistent red flags
	if reds >= s.cfg.WeakClusterSize && !strong {
		final = model.MaxConfidence(final, model.ConfidenceHigh)
	}

	return base, final
}

// baseConfidence combines data coverage with signal strength
func (s *Scorer) baseConfidence(coverage float64, strong bool) model.Confidence {
	switch {
	case coverage < s.cfg.MediumCoverage:
		if strong {
			return model.ConfidenceMedium
		}
		return model.ConfidenceLow
	case coverage < s.cfg.ConfidentCoverage:
		return model.ConfidenceMedium
	default:
		if strong {
			return model.ConfidenceHigh
		}
		return model.ConfidenceMedium
	}
}

// redFlagStrength counts contributing red flags and reports whether any is strong.
// Positive signals do not count: a verified domain is not evidence of a fake.
func (s *Scorer) redFlagStrength(activations []model.RuleActivation) (count int, strong bool) {
	for _, a := range activations {
		if a.Polarity != model.PolarityRedFlag || a.AdjustedWeight <= 0 {
			continue
		}
		count++
		if a.AdjustedWeight > s.cfg.StrongWeight {
			strong = true
		}
	}
	return count, strong
}
