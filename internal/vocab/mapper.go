package vocab

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"tagsmith/internal/logging"
	"tagsmith/internal/services"
	"tagsmith/internal/store"
)

// MappingSource is the vocabulary lookup contract the mapper needs from the store.
type MappingSource interface {
	LookupMappings(ctx context.Context, source string, labels []string) (map[string]store.VocabMapping, error)
	RecordUnmappedLabels(ctx context.Context, source string, labels []string) error
}

// Label is a raw prediction emitted by a model source before mapping.
type Label struct {
	Name       string
	Confidence float64
}

// Mapped is a label translated into taxonomy terms.
type Mapped struct {
	TagID      int64
	Confidence float64
	Label      string
}

// Mapper translates source-specific label vocabularies into taxonomy tag IDs.
type Mapper struct {
	mappings MappingSource
	logger   *slog.Logger
	folder   cases.Caser
}

// NewMapper constructs a mapper backed by the store's vocabulary tables.
func NewMapper(mappings MappingSource, logger *slog.Logger) *Mapper {
	return &Mapper{
		mappings: mappings,
		logger:   logging.NewComponentLogger(logger, "vocab"),
		folder:   cases.Fold(),
	}
}

// NormalizeLabel canonicalizes a raw model label before lookup: Unicode NFC,
// case folding, and whitespace collapsed to single spaces.
func (m *Mapper) NormalizeLabel(label string) string {
	folded := m.folder.String(norm.NFC.String(label))
	return strings.Join(strings.Fields(folded), " ")
}

// Map resolves a batch of raw labels for one source in a single lookup.
// Labels mapped to a tag come back with their confidence scaled by the
// mapping multiplier and clamped to [0, 1]. Labels explicitly mapped to
// nothing are dropped silently. Labels with no mapping row are dropped and
// recorded for curation.
func (m *Mapper) Map(ctx context.Context, source string, labels []Label) ([]Mapped, error) {
	if len(labels) == 0 {
		return nil, nil
	}

	normalized := make([]Label, 0, len(labels))
	names := make([]string, 0, len(labels))
	for _, label := range labels {
		name := m.NormalizeLabel(label.Name)
		if name == "" {
			continue
		}
		normalized = append(normalized, Label{Name: name, Confidence: label.Confidence})
		names = append(names, name)
	}

	rows, err := m.mappings.LookupMappings(ctx, source, names)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "vocab", "map", "mapping lookup failed", err)
	}

	mapped := make([]Mapped, 0, len(normalized))
	var unmapped []string
	ignored := 0
	for _, label := range normalized {
		mapping, present := rows[label.Name]
		if !present {
			unmapped = append(unmapped, label.Name)
			continue
		}
		if mapping.TagID == nil {
			ignored++
			continue
		}
		mapped = append(mapped, Mapped{
			TagID:      *mapping.TagID,
			Confidence: clamp(label.Confidence * mapping.Multiplier),
			Label:      label.Name,
		})
	}

	if len(unmapped) > 0 {
		if err := m.mappings.RecordUnmappedLabels(ctx, source, unmapped); err != nil {
			// Curation bookkeeping must not fail the mapping pass.
			m.logger.Warn("failed to record unmapped labels",
				logging.String(logging.FieldSource, source),
				logging.Error(err),
			)
		}
	}

	m.logger.Debug("mapped source labels",
		logging.String(logging.FieldSource, source),
		logging.Int("labels", len(normalized)),
		logging.Int("mapped", len(mapped)),
		logging.Int("ignored", ignored),
		logging.Int("unmapped", len(unmapped)),
	)
	return mapped, nil
}

func clamp(confidence float64) float64 {
	if confidence > 1 {
		return 1
	}
	if confidence < 0 {
		return 0
	}
	return confidence
}
