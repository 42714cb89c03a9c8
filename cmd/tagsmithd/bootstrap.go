package main

import (
	"log/slog"

	"tagsmith/internal/config"
	"tagsmith/internal/daemon"
	"tagsmith/internal/generate"
	"tagsmith/internal/predict"
	"tagsmith/internal/store"
	"tagsmith/internal/taxonomy"
	"tagsmith/internal/vocab"
)

func buildDaemon(cfg *config.Config, st *store.Store, logger *slog.Logger) (*daemon.Daemon, error) {
	catalog := predict.NewCatalog(cfg, st, logger)
	orchestrator := generate.New(
		cfg,
		st,
		catalog,
		predict.NewDispatcher(cfg, logger),
		vocab.NewMapper(st, logger),
		taxonomy.NewResolver(st, cfg.Taxonomy, logger),
		logger,
	)
	return daemon.New(cfg, st, catalog, orchestrator, logger)
}
