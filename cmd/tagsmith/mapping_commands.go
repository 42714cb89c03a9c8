package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tagsmith/internal/config"
	"tagsmith/internal/store"
	"tagsmith/internal/vocab"
)

func newMappingsCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Manage source vocabulary mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newMappingsSetCommand(cmdCtx))
	cmd.AddCommand(newMappingsIgnoreCommand(cmdCtx))
	cmd.AddCommand(newMappingsUnmappedCommand(cmdCtx))
	return cmd
}

func newMappingsSetCommand(cmdCtx *commandContext) *cobra.Command {
	var tagID int64
	var multiplier float64

	cmd := &cobra.Command{
		Use:   "set <source> <label>",
		Short: "Map a source label to a taxonomy tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tagID <= 0 {
				return fmt.Errorf("--tag is required")
			}
			if multiplier < 0 || multiplier > 1 {
				return fmt.Errorf("--multiplier must be within [0,1]")
			}
			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				label := vocab.NewMapper(st, cmdCtx.logger()).NormalizeLabel(args[1])
				if err := st.UpsertMapping(ctx, args[0], label, &tagID, multiplier); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "mapped %s/%q to tag %d (x%.2f)\n", args[0], label, tagID, multiplier)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&tagID, "tag", 0, "Target taxonomy tag ID")
	cmd.Flags().Float64Var(&multiplier, "multiplier", 1.0, "Confidence multiplier")
	return cmd
}

func newMappingsIgnoreCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ignore <source> <label>",
		Short: "Mark a source label as deliberately unmapped",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				label := vocab.NewMapper(st, cmdCtx.logger()).NormalizeLabel(args[1])
				if err := st.UpsertMapping(ctx, args[0], label, nil, 1.0); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ignoring %s/%q\n", args[0], label)
				return nil
			})
		},
	}
}

func newMappingsUnmappedCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "unmapped",
		Short: "List labels dropped for lack of a mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				labels, err := st.UnmappedLabels(ctx, limit)
				if err != nil {
					return err
				}
				if len(labels) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no unmapped labels recorded")
					return nil
				}

				rows := make([][]string, 0, len(labels))
				for _, label := range labels {
					rows = append(rows, []string{
						label.Source,
						label.Label,
						strconv.FormatInt(label.HitCount, 10),
						label.LastSeen.Format("2006-01-02 15:04"),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"SOURCE", "LABEL", "HITS", "LAST SEEN"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum labels to show")
	return cmd
}
