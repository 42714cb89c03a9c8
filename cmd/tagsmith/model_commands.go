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

func newModelsCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage classifier model versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newModelsListCommand(cmdCtx))
	cmd.AddCommand(newModelsAddCommand(cmdCtx))
	cmd.AddCommand(newModelsActivateCommand(cmdCtx))
	return cmd
}

func newModelsListCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <model-name>",
		Short: "List registered versions for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				versions, err := st.ModelVersions(ctx, args[0])
				if err != nil {
					return err
				}
				if len(versions) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "no versions registered for %q\n", args[0])
					return nil
				}

				rows := make([][]string, 0, len(versions))
				for _, version := range versions {
					active := ""
					if version.Active {
						active = "yes"
					}
					deployed := ""
					if version.DeployedAt != nil {
						deployed = version.DeployedAt.Format("2006-01-02 15:04")
					}
					rows = append(rows, []string{
						strconv.FormatInt(version.ID, 10),
						version.Version,
						version.ArtifactPath,
						active,
						deployed,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "VERSION", "ARTIFACT", "ACTIVE", "DEPLOYED"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newModelsAddCommand(cmdCtx *commandContext) *cobra.Command {
	var artifact string
	var metrics string

	cmd := &cobra.Command{
		Use:   "add <model-name> <version>",
		Short: "Register a model version (inactive until activated)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				version, err := st.RecordModelVersion(ctx, strings.TrimSpace(args[0]), strings.TrimSpace(args[1]), artifact, metrics)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered %s %s as id %d\n", version.ModelName, version.Version, version.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&artifact, "artifact", "", "Path to the model artifact")
	cmd.Flags().StringVar(&metrics, "metrics", "", "Evaluation metrics as JSON")
	return cmd
}

func newModelsActivateCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <version-id>",
		Short: "Make a registered version the active one for its model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid version id %q", args[0])
			}
			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				if err := st.ActivateModelVersion(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "activated model version %d; the daemon picks it up on its next catalog reload\n", id)
				return nil
			})
		},
	}
}
