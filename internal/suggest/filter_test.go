package suggest_test

import (
	"testing"

	"tagsmith/internal/config"
	"tagsmith/internal/store"
	"tagsmith/internal/suggest"
)

func TestThresholdLookup(t *testing.T) {
	thresholds := suggest.NewThresholds(config.Thresholds{
		Default: 0.5,
		Rules: []config.ThresholdRule{
			{Source: "general", Category: "artist", Minimum: 0.9},
			{Source: "custom", Category: "theme", Minimum: 0.3},
		},
	})

	cases := []struct {
		source   string
		category store.Category
		want     float64
	}{
		{"general", store.CategoryArtist, 0.9},
		{"custom", store.CategoryTheme, 0.3},
		{"general", store.CategoryTheme, 0.5},
		{"unknown", store.CategoryArtist, 0.5},
	}
	for _, tc := range cases {
		if got := thresholds.Minimum(tc.source, tc.category); got != tc.want {
			t.Errorf("Minimum(%s, %s) = %v, want %v", tc.source, tc.category, got, tc.want)
		}
	}
}

func TestFilterKeepsAtThreshold(t *testing.T) {
	thresholds := suggest.NewThresholds(config.Thresholds{Default: 0.5})

	kept := thresholds.Filter([]suggest.Candidate{
		{ImageID: 1, TagID: 1, Category: store.CategoryTheme, Confidence: 0.5, Source: "custom"},
		{ImageID: 1, TagID: 2, Category: store.CategoryTheme, Confidence: 0.49, Source: "custom"},
	})
	if len(kept) != 1 || kept[0].TagID != 1 {
		t.Fatalf("expected only the at-threshold candidate to survive, got %#v", kept)
	}
}

func TestLoweringThresholdOnlyAdds(t *testing.T) {
	candidates := []suggest.Candidate{
		{ImageID: 1, TagID: 1, Category: store.CategoryTheme, Confidence: 0.9, Source: "custom"},
		{ImageID: 1, TagID: 2, Category: store.CategoryTheme, Confidence: 0.6, Source: "custom"},
		{ImageID: 1, TagID: 3, Category: store.CategoryTheme, Confidence: 0.3, Source: "custom"},
	}

	strict := suggest.NewThresholds(config.Thresholds{Default: 0.7}).Filter(candidates)
	relaxed := suggest.NewThresholds(config.Thresholds{Default: 0.5}).Filter(candidates)

	strictTags := make(map[int64]bool)
	for _, candidate := range strict {
		strictTags[candidate.TagID] = true
	}
	relaxedTags := make(map[int64]bool)
	for _, candidate := range relaxed {
		relaxedTags[candidate.TagID] = true
	}
	for tagID := range strictTags {
		if !relaxedTags[tagID] {
			t.Fatalf("lowering threshold removed tag %d", tagID)
		}
	}
	if len(relaxed) < len(strict) {
		t.Fatalf("relaxed filter kept fewer candidates: %d < %d", len(relaxed), len(strict))
	}
}

func TestFilterAppliesToDerivedCandidates(t *testing.T) {
	thresholds := suggest.NewThresholds(config.Thresholds{Default: 0.7})

	kept := thresholds.Filter([]suggest.Candidate{
		{ImageID: 1, TagID: 5, Category: store.CategoryTheme, Confidence: 0.675, Source: "custom", HierarchyDerived: true},
	})
	if len(kept) != 0 {
		t.Fatalf("derived candidate below threshold must be dropped, got %#v", kept)
	}
}
