package suggest_test

import (
	"math/rand"
	"reflect"
	"testing"

	"tagsmith/internal/config"
	"tagsmith/internal/store"
	"tagsmith/internal/suggest"
)

func testMerger() *suggest.Merger {
	return suggest.NewMerger([]config.Source{
		{Name: "custom", Kind: "custom"},
		{Name: "general", Kind: "general"},
	})
}

func TestMergeKeepsHighestConfidence(t *testing.T) {
	merged := testMerger().Merge([]suggest.Candidate{
		{ImageID: 1, TagID: 7, Confidence: 0.6, Source: "general"},
		{ImageID: 1, TagID: 7, Confidence: 0.8, Source: "custom"},
		{ImageID: 1, TagID: 9, Confidence: 0.5, Source: "general"},
	})
	if len(merged) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(merged))
	}
	if merged[0].TagID != 7 || merged[0].Confidence != 0.8 || merged[0].Source != "custom" {
		t.Fatalf("unexpected survivor for tag 7: %#v", merged[0])
	}
}

func TestMergeTieBrokenBySourcePriority(t *testing.T) {
	// Primary and mapped fallback agree on the same tag at the same score:
	// one row survives, attributed to the primary source.
	merged := testMerger().Merge([]suggest.Candidate{
		{ImageID: 3, TagID: 46, Confidence: 0.90, Source: "general", Category: store.CategoryCharacter},
		{ImageID: 3, TagID: 46, Confidence: 0.90, Source: "custom", Category: store.CategoryCharacter},
	})
	if len(merged) != 1 {
		t.Fatalf("expected 1 survivor, got %d", len(merged))
	}
	if merged[0].Source != "custom" {
		t.Fatalf("tie must fall to the higher-priority source, got %q", merged[0].Source)
	}
}

func TestMergeOrderIndependent(t *testing.T) {
	candidates := []suggest.Candidate{
		{ImageID: 1, TagID: 1, Confidence: 0.9, Source: "custom"},
		{ImageID: 1, TagID: 1, Confidence: 0.9, Source: "general"},
		{ImageID: 1, TagID: 1, Confidence: 0.85, Source: "general", ResolvedFromAlias: true},
		{ImageID: 1, TagID: 2, Confidence: 0.7, Source: "general"},
		{ImageID: 1, TagID: 2, Confidence: 0.7, Source: "general", HierarchyDerived: true},
		{ImageID: 2, TagID: 1, Confidence: 0.6, Source: "custom"},
	}

	merger := testMerger()
	baseline := merger.Merge(candidates)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		shuffled := make([]suggest.Candidate, len(candidates))
		copy(shuffled, candidates)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		if got := merger.Merge(shuffled); !reflect.DeepEqual(got, baseline) {
			t.Fatalf("merge depends on input order:\n got %#v\nwant %#v", got, baseline)
		}
	}
}

func TestMergeUnknownSourceLosesTies(t *testing.T) {
	merged := testMerger().Merge([]suggest.Candidate{
		{ImageID: 1, TagID: 1, Confidence: 0.8, Source: "experimental"},
		{ImageID: 1, TagID: 1, Confidence: 0.8, Source: "general"},
	})
	if merged[0].Source != "general" {
		t.Fatalf("configured source must win ties against unconfigured, got %q", merged[0].Source)
	}
}
