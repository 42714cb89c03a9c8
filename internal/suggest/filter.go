package suggest

import (
	"tagsmith/internal/config"
	"tagsmith/internal/store"
)

type thresholdKey struct {
	source   string
	category store.Category
}

// Thresholds is the static confidence filter table keyed by (source, category)
// with a default for unlisted pairs.
type Thresholds struct {
	fallback float64
	rules    map[thresholdKey]float64
}

// NewThresholds builds the filter table from configuration.
func NewThresholds(cfg config.Thresholds) *Thresholds {
	rules := make(map[thresholdKey]float64, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		rules[thresholdKey{source: rule.Source, category: store.Category(rule.Category)}] = rule.Minimum
	}
	return &Thresholds{fallback: cfg.Default, rules: rules}
}

// Minimum returns the confidence floor for a (source, category) pair.
func (t *Thresholds) Minimum(source string, category store.Category) float64 {
	if minimum, ok := t.rules[thresholdKey{source: source, category: category}]; ok {
		return minimum
	}
	return t.fallback
}

// Filter keeps candidates whose confidence meets or exceeds their floor.
// Hierarchy-derived candidates are filtered on their decayed confidence like
// any other candidate.
func (t *Thresholds) Filter(candidates []Candidate) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Confidence >= t.Minimum(candidate.Source, candidate.Category) {
			kept = append(kept, candidate)
		}
	}
	return kept
}
