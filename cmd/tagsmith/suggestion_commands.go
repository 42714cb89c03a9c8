package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tagsmith/internal/config"
	"tagsmith/internal/store"
)

func newSuggestionsCommand(cmdCtx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "suggestions <image-id>",
		Short: "List suggestions for an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageID, err := parseImageID(args[0])
			if err != nil {
				return err
			}

			var statuses []store.SuggestionStatus
			if statusFlag != "" {
				status, ok := store.ParseSuggestionStatus(statusFlag)
				if !ok {
					return fmt.Errorf("invalid status %q (want pending, approved, or rejected)", statusFlag)
				}
				statuses = append(statuses, status)
			}

			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				suggestions, err := st.SuggestionsForImage(ctx, imageID, statuses...)
				if err != nil {
					return err
				}
				if len(suggestions) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "no suggestions for image %d\n", imageID)
					return nil
				}

				tagIDs := make([]int64, 0, len(suggestions))
				for _, suggestion := range suggestions {
					tagIDs = append(tagIDs, suggestion.TagID)
				}
				tags, err := st.TagsByIDs(ctx, tagIDs)
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(suggestions))
				for _, suggestion := range suggestions {
					title := ""
					category := ""
					if tag := tags[suggestion.TagID]; tag != nil {
						title = tag.Title
						category = string(tag.Category)
					}
					rows = append(rows, []string{
						strconv.FormatInt(suggestion.ID, 10),
						title,
						category,
						fmt.Sprintf("%.2f", suggestion.Confidence),
						suggestion.Source,
						suggestionFlags(suggestion),
						string(suggestion.Status),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "TAG", "CATEGORY", "CONFIDENCE", "SOURCE", "FLAGS", "STATUS"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (pending, approved, rejected)")
	return cmd
}

func suggestionFlags(suggestion *store.Suggestion) string {
	var flags []string
	if suggestion.ResolvedFromAlias {
		flags = append(flags, "alias")
	}
	if suggestion.HierarchyDerived {
		flags = append(flags, "derived")
	}
	return strings.Join(flags, ",")
}

func newStatsCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show suggestion counts by source, category, and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				stats, err := st.SuggestionStats(ctx)
				if err != nil {
					return err
				}
				if len(stats) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no suggestions recorded")
					return nil
				}

				rows := make([][]string, 0, len(stats))
				for _, stat := range stats {
					rows = append(rows, []string{
						stat.Source,
						string(stat.Category),
						string(stat.Status),
						strconv.Itoa(stat.Count),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"SOURCE", "CATEGORY", "STATUS", "COUNT"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}
