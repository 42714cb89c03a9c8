package suggest

import (
	"sort"

	"tagsmith/internal/config"
)

type mergeKey struct {
	imageID int64
	tagID   int64
}

// Merger deduplicates candidates to one survivor per (image, canonical tag).
type Merger struct {
	priority map[string]int
}

// NewMerger derives source priority from the configuration order: earlier
// sources win exact-confidence ties.
func NewMerger(sources []config.Source) *Merger {
	priority := make(map[string]int, len(sources))
	for i, source := range sources {
		priority[source.Name] = i
	}
	return &Merger{priority: priority}
}

// Merge collapses the candidate multiset to one entry per (image, tag),
// keeping the highest confidence and breaking exact ties by source priority.
// The result is independent of input order and sorted for deterministic
// persistence.
func (m *Merger) Merge(candidates []Candidate) []Candidate {
	best := make(map[mergeKey]Candidate, len(candidates))
	for _, candidate := range candidates {
		key := mergeKey{imageID: candidate.ImageID, tagID: candidate.TagID}
		current, seen := best[key]
		if !seen || m.better(candidate, current) {
			best[key] = candidate
		}
	}

	merged := make([]Candidate, 0, len(best))
	for _, candidate := range best {
		merged = append(merged, candidate)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].ImageID != merged[j].ImageID {
			return merged[i].ImageID < merged[j].ImageID
		}
		return merged[i].TagID < merged[j].TagID
	})
	return merged
}

// better reports whether a should replace b. Every comparison is a total
// order so that merge output cannot depend on input order.
func (m *Merger) better(a, b Candidate) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if ra, rb := m.rank(a.Source), m.rank(b.Source); ra != rb {
		return ra < rb
	}
	if a.HierarchyDerived != b.HierarchyDerived {
		return !a.HierarchyDerived
	}
	if a.ResolvedFromAlias != b.ResolvedFromAlias {
		return !a.ResolvedFromAlias
	}
	return false
}

func (m *Merger) rank(source string) int {
	if rank, ok := m.priority[source]; ok {
		return rank
	}
	// Unconfigured sources sort after every configured one.
	return len(m.priority)
}
