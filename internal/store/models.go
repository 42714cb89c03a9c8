package store

import (
	"strings"
	"time"
)

// Category classifies a tag into one of the fixed taxonomy groups.
type Category string

const (
	CategoryTheme     Category = "theme"
	CategorySource    Category = "source"
	CategoryCharacter Category = "character"
	CategoryArtist    Category = "artist"
)

var allCategories = []Category{CategoryTheme, CategorySource, CategoryCharacter, CategoryArtist}

// AllCategories returns the ordered list of known tag categories.
func AllCategories() []Category {
	cp := make([]Category, len(allCategories))
	copy(cp, allCategories)
	return cp
}

// ParseCategory converts a string into a known Category.
func ParseCategory(value string) (Category, bool) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, category := range allCategories {
		if category == normalized {
			return normalized, true
		}
	}
	return "", false
}

// SuggestionStatus represents the review lifecycle of a suggestion.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
)

// ParseSuggestionStatus converts a string into a known SuggestionStatus.
func ParseSuggestionStatus(value string) (SuggestionStatus, bool) {
	normalized := SuggestionStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case SuggestionPending, SuggestionApproved, SuggestionRejected:
		return normalized, true
	default:
		return "", false
	}
}

// RunStatus represents the outcome of one image generation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunSkipped   RunStatus = "skipped"
	RunFailed    RunStatus = "failed"
)

// Tag is a taxonomy entry. AliasOf points at the tag this one is a synonym
// for; ParentID points at the broader tag implied by this one. Alias chains
// terminate at a tag with AliasOf == nil within the configured depth cap.
type Tag struct {
	ID         int64
	Title      string
	Category   Category
	AliasOf    *int64
	ParentID   *int64
	UsageCount int64
	CreatedAt  time.Time
}

// VocabMapping translates one external source label to a canonical tag.
// A nil TagID marks the label as explicitly ignored.
type VocabMapping struct {
	Source     string
	Label      string
	TagID      *int64
	Multiplier float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UnmappedLabel records an external label the mapper dropped, for curators.
type UnmappedLabel struct {
	Source   string
	Label    string
	HitCount int64
	LastSeen time.Time
}

// Suggestion is one reviewable tag proposal for an image. At most one row
// exists per (ImageID, TagID); the unique index is the authority.
type Suggestion struct {
	ID                int64
	ImageID           int64
	TagID             int64
	Confidence        float64
	Source            string
	SourceVersion     string
	ResolvedFromAlias bool
	HierarchyDerived  bool
	Status            SuggestionStatus
	CreatedAt         time.Time
	ReviewedAt        *time.Time
	ReviewedBy        string
}

// TagApplication links an approved tag to an image.
type TagApplication struct {
	ImageID   int64
	TagID     int64
	AppliedBy string
	CreatedAt time.Time
}

// ModelVersion records a deployed prediction model artifact. At most one row
// per model name is active at a time; ActivateModelVersion enforces it.
type ModelVersion struct {
	ID           int64
	ModelName    string
	Version      string
	ArtifactPath string
	Active       bool
	DeployedAt   *time.Time
	MetricsJSON  string
	CreatedAt    time.Time
}

// GenerationRun is the operator-facing record of one orchestrator run.
type GenerationRun struct {
	ID                 int64
	AttemptID          string
	ImageID            int64
	Status             RunStatus
	Attempts           int
	Partial            bool
	FailedSources      []string
	SuggestionsCreated int
	ErrorMessage       string
	StartedAt          time.Time
	FinishedAt         *time.Time
}

// SuggestionStat aggregates suggestion counts for one (source, category, status) cell.
type SuggestionStat struct {
	Source   string
	Category Category
	Status   SuggestionStatus
	Count    int
}
