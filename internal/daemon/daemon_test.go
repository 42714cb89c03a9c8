package daemon_test

import (
	"context"
	"testing"

	"tagsmith/internal/config"
	"tagsmith/internal/daemon"
	"tagsmith/internal/generate"
	"tagsmith/internal/logging"
	"tagsmith/internal/predict"
	"tagsmith/internal/store"
	"tagsmith/internal/taxonomy"
	"tagsmith/internal/testsupport"
	"tagsmith/internal/vocab"
)

func newDaemon(t *testing.T, cfg *config.Config, st *store.Store) *daemon.Daemon {
	t.Helper()

	logger := logging.NewNop()
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
	d, err := daemon.New(cfg, st, catalog, orchestrator, logger)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	return d
}

func TestDaemonLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, st)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(d.Stop)

	status := d.Status()
	if !status.Running {
		t.Fatal("expected running status")
	}
	if status.Sources != len(cfg.Sources) {
		t.Fatalf("expected %d sources loaded, got %d", len(cfg.Sources), status.Sources)
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected stopped status")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	first := newDaemon(t, cfg, st)
	second := newDaemon(t, cfg, st)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	t.Cleanup(first.Stop)

	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("second instance must be refused while the lock is held")
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("second Start after release failed: %v", err)
	}
	second.Stop()
}
