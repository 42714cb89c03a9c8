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

func newRunsCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent generation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				runs, err := st.RecentRuns(ctx, limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no generation runs recorded")
					return nil
				}

				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					detail := run.ErrorMessage
					if run.Partial {
						detail = "failed sources: " + strings.Join(run.FailedSources, ", ")
					}
					rows = append(rows, []string{
						strconv.FormatInt(run.ImageID, 10),
						string(run.Status),
						strconv.Itoa(run.Attempts),
						strconv.Itoa(run.SuggestionsCreated),
						run.StartedAt.Format("2006-01-02 15:04:05"),
						detail,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"IMAGE", "STATUS", "ATTEMPTS", "CREATED", "STARTED", "DETAIL"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to show")
	return cmd
}
