package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tagsmith/internal/config"
	"tagsmith/internal/generate"
	"tagsmith/internal/predict"
	"tagsmith/internal/store"
	"tagsmith/internal/taxonomy"
	"tagsmith/internal/vocab"
)

func newGenerateCommand(cmdCtx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "generate <image-id>",
		Short: "Generate tag suggestions for an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageID, err := parseImageID(args[0])
			if err != nil {
				return err
			}
			return cmdCtx.withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				logger := cmdCtx.logger()
				catalog := predict.NewCatalog(cfg, st, logger)
				if err := catalog.Reload(ctx); err != nil {
					return err
				}
				orchestrator := generate.New(
					cfg,
					st,
					catalog,
					predict.NewDispatcher(cfg, logger),
					vocab.NewMapper(st, logger),
					taxonomy.NewResolver(st, cfg.Taxonomy, logger),
					logger,
				)

				result, err := orchestrator.Generate(ctx, imageID, force)
				if err != nil {
					return err
				}
				switch result.Status {
				case generate.StatusSkipped:
					fmt.Fprintf(cmd.OutOrStdout(), "image %d already has suggestions (use --force to regenerate)\n", imageID)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "created %d suggestions for image %d\n", result.SuggestionsCreated, imageID)
					if result.Partial {
						fmt.Fprintf(cmd.OutOrStdout(), "partial result: sources failed: %s\n", strings.Join(result.FailedSources, ", "))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Regenerate even if suggestions already exist")
	return cmd
}

func parseImageID(arg string) (int64, error) {
	imageID, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || imageID <= 0 {
		return 0, fmt.Errorf("invalid image id %q", arg)
	}
	return imageID, nil
}
