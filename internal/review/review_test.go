package review_test

import (
	"context"
	"testing"

	"tagsmith/internal/logging"
	"tagsmith/internal/review"
	"tagsmith/internal/store"
	"tagsmith/internal/testsupport"
)

func seedPending(t *testing.T, st *store.Store, imageID int64, titles ...string) []*store.Suggestion {
	t.Helper()

	ctx := context.Background()
	suggestions := make([]store.Suggestion, 0, len(titles))
	for _, title := range titles {
		tag := testsupport.MustCreateTag(t, st, title, store.CategoryTheme, nil, nil)
		suggestions = append(suggestions, store.Suggestion{
			ImageID:    imageID,
			TagID:      tag.ID,
			Confidence: 0.8,
			Source:     "custom",
		})
	}
	if _, err := st.SaveGenerated(ctx, suggestions); err != nil {
		t.Fatalf("SaveGenerated failed: %v", err)
	}
	stored, err := st.SuggestionsForImage(ctx, imageID)
	if err != nil {
		t.Fatalf("SuggestionsForImage failed: %v", err)
	}
	return stored
}

func TestApplyDecisionsPartialSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	workflow := review.NewWorkflow(st, logging.NewNop())

	ctx := context.Background()
	stored := seedPending(t, st, 1, "castle", "forest")

	outcome, err := workflow.ApplyDecisions(ctx, 1, "alice", []review.Decision{
		{SuggestionID: stored[0].ID, Action: review.ActionApprove},
		{SuggestionID: stored[1].ID, Action: review.ActionReject},
		{SuggestionID: 999, Action: review.ActionApprove},
	})
	if err != nil {
		t.Fatalf("ApplyDecisions failed: %v", err)
	}
	if outcome.Approved != 1 || outcome.Rejected != 1 {
		t.Fatalf("unexpected counts: %#v", outcome)
	}
	if len(outcome.Errors) != 1 || outcome.Errors[0].SuggestionID != 999 || outcome.Errors[0].Reason != "not found" {
		t.Fatalf("unexpected errors: %#v", outcome.Errors)
	}

	applied, err := st.TagApplied(ctx, 1, stored[0].TagID)
	if err != nil {
		t.Fatalf("TagApplied failed: %v", err)
	}
	if !applied {
		t.Fatal("approval must create the tag application")
	}
	rejectedApplied, _ := st.TagApplied(ctx, 1, stored[1].TagID)
	if rejectedApplied {
		t.Fatal("rejection must not create a tag application")
	}
}

func TestApplyDecisionsRefusesDecidedSuggestions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	workflow := review.NewWorkflow(st, logging.NewNop())

	ctx := context.Background()
	stored := seedPending(t, st, 2, "dragon")

	if _, err := workflow.ApplyDecisions(ctx, 2, "alice", []review.Decision{
		{SuggestionID: stored[0].ID, Action: review.ActionApprove},
	}); err != nil {
		t.Fatalf("ApplyDecisions failed: %v", err)
	}

	outcome, err := workflow.ApplyDecisions(ctx, 2, "bob", []review.Decision{
		{SuggestionID: stored[0].ID, Action: review.ActionReject},
	})
	if err != nil {
		t.Fatalf("ApplyDecisions failed: %v", err)
	}
	if outcome.Rejected != 0 || len(outcome.Errors) != 1 || outcome.Errors[0].Reason != "not pending" {
		t.Fatalf("decided suggestion must be refused: %#v", outcome)
	}

	suggestion, _ := st.GetSuggestion(ctx, stored[0].ID)
	if suggestion.Status != store.SuggestionApproved {
		t.Fatalf("original decision must stand, got %s", suggestion.Status)
	}
}

func TestApplyDecisionsScopedToImage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	workflow := review.NewWorkflow(st, logging.NewNop())

	ctx := context.Background()
	stored := seedPending(t, st, 3, "harbor")

	// Reviewing through the wrong image must not touch the suggestion.
	outcome, err := workflow.ApplyDecisions(ctx, 4, "alice", []review.Decision{
		{SuggestionID: stored[0].ID, Action: review.ActionApprove},
	})
	if err != nil {
		t.Fatalf("ApplyDecisions failed: %v", err)
	}
	if outcome.Approved != 0 || len(outcome.Errors) != 1 || outcome.Errors[0].Reason != "not found" {
		t.Fatalf("foreign suggestion must be refused: %#v", outcome)
	}

	suggestion, _ := st.GetSuggestion(ctx, stored[0].ID)
	if suggestion.Status != store.SuggestionPending {
		t.Fatalf("suggestion must stay pending, got %s", suggestion.Status)
	}
}

func TestApplyDecisionsUnknownAction(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	workflow := review.NewWorkflow(st, logging.NewNop())

	stored := seedPending(t, st, 5, "sunset")

	outcome, err := workflow.ApplyDecisions(context.Background(), 5, "alice", []review.Decision{
		{SuggestionID: stored[0].ID, Action: review.Action("defer")},
	})
	if err != nil {
		t.Fatalf("ApplyDecisions failed: %v", err)
	}
	if len(outcome.Errors) != 1 || outcome.Errors[0].Reason != "unknown action" {
		t.Fatalf("unexpected outcome: %#v", outcome)
	}
}
