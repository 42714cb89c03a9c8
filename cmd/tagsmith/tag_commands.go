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

func newTagCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage taxonomy tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newTagAddCommand(cmdCtx))
	cmd.AddCommand(newTagAliasCommand(cmdCtx))
	cmd.AddCommand(newTagParentCommand(cmdCtx))
	return cmd
}

func newTagAddCommand(cmdCtx *commandContext) *cobra.Command {
	var categoryFlag string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a taxonomy tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, ok := store.ParseCategory(categoryFlag)
			if !ok {
				return fmt.Errorf("invalid category %q (want theme, source, character, or artist)", categoryFlag)
			}
			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				tag, err := st.CreateTag(ctx, strings.TrimSpace(args[0]), category, nil, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created tag %d (%s)\n", tag.ID, tag.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&categoryFlag, "category", "theme", "Tag category (theme, source, character, artist)")
	return cmd
}

func newTagAliasCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "alias <tag-id> <canonical-tag-id>",
		Short: "Point a tag at its canonical equivalent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tagID, err := parseTagArg(args[0])
			if err != nil {
				return err
			}
			targetID, err := parseTagArg(args[1])
			if err != nil {
				return err
			}
			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				if err := st.SetTagAlias(ctx, tagID, &targetID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "tag %d now aliases tag %d\n", tagID, targetID)
				return nil
			})
		},
	}
}

func newTagParentCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "parent <tag-id> <parent-tag-id>",
		Short: "Set a tag's parent for inheritance propagation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tagID, err := parseTagArg(args[0])
			if err != nil {
				return err
			}
			parentID, err := parseTagArg(args[1])
			if err != nil {
				return err
			}
			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				if err := st.SetTagParent(ctx, tagID, &parentID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "tag %d now inherits to tag %d\n", tagID, parentID)
				return nil
			})
		},
	}
}

func parseTagArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid tag id %q", arg)
	}
	return id, nil
}
