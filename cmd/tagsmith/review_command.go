package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tagsmith/internal/config"
	"tagsmith/internal/review"
	"tagsmith/internal/store"
)

func newReviewCommand(cmdCtx *commandContext) *cobra.Command {
	var approveIDs []int64
	var rejectIDs []int64
	var reviewer string

	cmd := &cobra.Command{
		Use:   "review <image-id>",
		Short: "Approve or reject suggestions for an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageID, err := parseImageID(args[0])
			if err != nil {
				return err
			}
			if reviewer == "" {
				return errors.New("--reviewer is required")
			}
			if len(approveIDs) == 0 && len(rejectIDs) == 0 {
				return errors.New("nothing to do: pass --approve and/or --reject")
			}

			decisions := make([]review.Decision, 0, len(approveIDs)+len(rejectIDs))
			for _, id := range approveIDs {
				decisions = append(decisions, review.Decision{SuggestionID: id, Action: review.ActionApprove})
			}
			for _, id := range rejectIDs {
				decisions = append(decisions, review.Decision{SuggestionID: id, Action: review.ActionReject})
			}

			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				workflow := review.NewWorkflow(st, cmdCtx.logger())
				outcome, err := workflow.ApplyDecisions(ctx, imageID, reviewer, decisions)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "approved %d, rejected %d\n", outcome.Approved, outcome.Rejected)
				for _, itemErr := range outcome.Errors {
					fmt.Fprintf(cmd.OutOrStdout(), "suggestion %d: %s\n", itemErr.SuggestionID, itemErr.Reason)
				}
				return nil
			})
		},
	}

	cmd.Flags().Int64SliceVar(&approveIDs, "approve", nil, "Suggestion IDs to approve")
	cmd.Flags().Int64SliceVar(&rejectIDs, "reject", nil, "Suggestion IDs to reject")
	cmd.Flags().StringVar(&reviewer, "reviewer", "", "Reviewer name recorded with each decision")
	return cmd
}
