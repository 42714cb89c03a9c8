package taxonomy

import (
	"context"
	"fmt"
	"log/slog"

	"tagsmith/internal/config"
	"tagsmith/internal/logging"
	"tagsmith/internal/services"
	"tagsmith/internal/store"
)

// TagSource is the taxonomy lookup contract the resolver needs from the store.
type TagSource interface {
	GetTag(ctx context.Context, id int64) (*store.Tag, error)
}

// CycleError reports an alias chain that did not terminate within the depth cap.
// It indicates bad taxonomy data, not a transient fault; the affected candidate
// is dropped while the rest of the batch proceeds.
type CycleError struct {
	TagID int64
	Path  []int64
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("alias chain for tag %d exceeded depth %d: path %v", e.TagID, len(e.Path)-1, e.Path)
}

// Resolution is the outcome of canonicalizing one tag identifier.
type Resolution struct {
	Tag *store.Tag
	// Aliased is true when the canonical tag differs from the requested one.
	Aliased bool
}

// Derived is an additional parent-tag suggestion produced by inheritance propagation.
type Derived struct {
	Tag        *store.Tag
	Confidence float64
}

// Resolver canonicalizes tag identifiers through alias chains and derives
// parent-tag suggestions via single-hop inheritance propagation.
type Resolver struct {
	tags      TagSource
	logger    *slog.Logger
	maxDepth  int
	threshold float64
	decay     float64
}

// NewResolver constructs a resolver using the taxonomy tuning from config.
func NewResolver(tags TagSource, cfg config.Taxonomy, logger *slog.Logger) *Resolver {
	return &Resolver{
		tags:      tags,
		logger:    logging.NewComponentLogger(logger, "taxonomy"),
		maxDepth:  cfg.MaxAliasDepth,
		threshold: cfg.PropagationThreshold,
		decay:     cfg.PropagationDecay,
	}
}

// Resolve follows alias_of pointers until reaching a tag with no alias target.
// The walk is capped at the configured depth; exceeding it returns a
// *CycleError scoped to this one tag. A missing tag anywhere on the chain is a
// not-found error.
func (r *Resolver) Resolve(ctx context.Context, tagID int64) (Resolution, error) {
	path := make([]int64, 0, r.maxDepth+1)
	currentID := tagID

	for hop := 0; ; hop++ {
		path = append(path, currentID)
		if hop > r.maxDepth {
			cycle := &CycleError{TagID: tagID, Path: path}
			r.logger.Warn("alias chain exceeded depth cap; dropping candidate",
				logging.Int64(logging.FieldTagID, tagID),
				logging.String(logging.FieldEventType, "taxonomy_cycle"),
				logging.String(logging.FieldErrorHint, "inspect alias_of chain for the reported tag"),
				logging.Error(cycle),
			)
			return Resolution{}, cycle
		}

		tag, err := r.tags.GetTag(ctx, currentID)
		if err != nil {
			return Resolution{}, services.Wrap(services.ErrTransient, "taxonomy", "resolve", "tag lookup failed", err)
		}
		if tag == nil {
			return Resolution{}, services.Wrap(services.ErrNotFound, "taxonomy", "resolve", fmt.Sprintf("tag %d does not exist", currentID), nil)
		}
		if tag.AliasOf == nil {
			return Resolution{Tag: tag, Aliased: tag.ID != tagID}, nil
		}
		currentID = *tag.AliasOf
	}
}

// Derive produces a parent-tag suggestion when the resolved tag has a parent
// and the pre-propagation confidence exceeds the propagation threshold. The
// derived confidence is the input multiplied by the decay factor. Propagation
// is single-hop: the parent's own parent is never consulted.
func (r *Resolver) Derive(ctx context.Context, resolved *store.Tag, confidence float64) (*Derived, error) {
	if resolved == nil || resolved.ParentID == nil {
		return nil, nil
	}
	if confidence < r.threshold {
		return nil, nil
	}

	parent, err := r.tags.GetTag(ctx, *resolved.ParentID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "taxonomy", "derive", "parent lookup failed", err)
	}
	if parent == nil {
		return nil, services.Wrap(services.ErrNotFound, "taxonomy", "derive", fmt.Sprintf("parent tag %d does not exist", *resolved.ParentID), nil)
	}
	return &Derived{Tag: parent, Confidence: confidence * r.decay}, nil
}
