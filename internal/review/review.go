package review

import (
	"context"
	"log/slog"

	"tagsmith/internal/logging"
	"tagsmith/internal/store"
)

// Action is a reviewer verdict for one suggestion.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Decision pairs a suggestion with a reviewer verdict.
type Decision struct {
	SuggestionID int64
	Action       Action
}

// ItemError reports why one decision in a batch could not be applied.
type ItemError struct {
	SuggestionID int64
	Reason       string
}

// Outcome summarizes a review batch. Items are independent: a batch can
// succeed partially, with failures reported per item.
type Outcome struct {
	Approved int
	Rejected int
	Errors   []ItemError
}

// Workflow applies reviewer decisions to stored suggestions. Callers are
// assumed to be authorized; authentication lives outside this package.
type Workflow struct {
	store  *store.Store
	logger *slog.Logger
}

// NewWorkflow constructs the review workflow over the suggestion store.
func NewWorkflow(st *store.Store, logger *slog.Logger) *Workflow {
	return &Workflow{
		store:  st,
		logger: logging.NewComponentLogger(logger, "review"),
	}
}

// ApplyDecisions applies a batch of decisions for one image. Approval marks
// the suggestion approved, records the tag application, and bumps tag usage;
// rejection only marks the status. Missing, foreign, or already-decided
// suggestions yield per-item errors without stopping the batch.
func (w *Workflow) ApplyDecisions(ctx context.Context, imageID int64, reviewer string, decisions []Decision) (Outcome, error) {
	var outcome Outcome
	for _, decision := range decisions {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		suggestion, err := w.store.GetSuggestion(ctx, decision.SuggestionID)
		if err != nil {
			outcome.Errors = append(outcome.Errors, ItemError{SuggestionID: decision.SuggestionID, Reason: err.Error()})
			continue
		}
		if suggestion == nil || suggestion.ImageID != imageID {
			outcome.Errors = append(outcome.Errors, ItemError{SuggestionID: decision.SuggestionID, Reason: "not found"})
			continue
		}

		switch decision.Action {
		case ActionApprove:
			applied, err := w.store.ApproveSuggestion(ctx, decision.SuggestionID, reviewer)
			if err != nil {
				outcome.Errors = append(outcome.Errors, ItemError{SuggestionID: decision.SuggestionID, Reason: err.Error()})
				continue
			}
			if !applied {
				outcome.Errors = append(outcome.Errors, ItemError{SuggestionID: decision.SuggestionID, Reason: "not pending"})
				continue
			}
			outcome.Approved++
		case ActionReject:
			rejected, err := w.store.RejectSuggestion(ctx, decision.SuggestionID, reviewer)
			if err != nil {
				outcome.Errors = append(outcome.Errors, ItemError{SuggestionID: decision.SuggestionID, Reason: err.Error()})
				continue
			}
			if !rejected {
				outcome.Errors = append(outcome.Errors, ItemError{SuggestionID: decision.SuggestionID, Reason: "not pending"})
				continue
			}
			outcome.Rejected++
		default:
			outcome.Errors = append(outcome.Errors, ItemError{SuggestionID: decision.SuggestionID, Reason: "unknown action"})
		}
	}

	w.logger.Info("review batch applied",
		logging.Int64(logging.FieldImageID, imageID),
		logging.String("reviewer", reviewer),
		logging.Int("approved", outcome.Approved),
		logging.Int("rejected", outcome.Rejected),
		logging.Int("errors", len(outcome.Errors)),
	)
	return outcome, nil
}
