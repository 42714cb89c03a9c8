package suggest

import "tagsmith/internal/store"

// Candidate is a potential suggestion after vocabulary mapping and taxonomy
// resolution, before filtering and merging.
type Candidate struct {
	ImageID           int64
	TagID             int64
	Category          store.Category
	Confidence        float64
	Source            string
	SourceVersion     string
	ResolvedFromAlias bool
	HierarchyDerived  bool
}

// Suggestion converts the candidate into the persisted form.
func (c Candidate) Suggestion() store.Suggestion {
	return store.Suggestion{
		ImageID:           c.ImageID,
		TagID:             c.TagID,
		Confidence:        c.Confidence,
		Source:            c.Source,
		SourceVersion:     c.SourceVersion,
		ResolvedFromAlias: c.ResolvedFromAlias,
		HierarchyDerived:  c.HierarchyDerived,
	}
}
