package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"tagsmith/internal/config"
	"tagsmith/internal/generate"
	"tagsmith/internal/logging"
	"tagsmith/internal/predict"
	"tagsmith/internal/store"
)

// Daemon coordinates the background generation workers and enforces
// single-instance execution.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        *store.Store
	catalog      *predict.Catalog
	orchestrator *generate.Orchestrator

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	DatabasePath string
	LockFilePath string
	Sources      int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, catalog *predict.Catalog, orchestrator *generate.Orchestrator, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || catalog == nil || orchestrator == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, catalog, orchestrator, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "tagsmithd.lock")
	return &Daemon{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "daemon"),
		store:        st,
		catalog:      catalog,
		orchestrator: orchestrator,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, loads the source catalog, and launches the
// generation workers.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another tagsmith daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.catalog.Reload(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("load source catalog: %w", err)
	}
	d.orchestrator.Start(d.ctx)

	d.running.Store(true)
	d.logger.Info("tagsmith daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.orchestrator.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("tagsmith daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// ReloadSources rebuilds the source catalog, picking up newly activated
// model versions without a restart.
func (d *Daemon) ReloadSources(ctx context.Context) error {
	return d.catalog.Reload(ctx)
}

// Enqueue queues an image for background generation.
func (d *Daemon) Enqueue(imageID int64, force bool) error {
	return d.orchestrator.Enqueue(imageID, force)
}

// Status reports current runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		Sources:      len(d.catalog.Sources()),
	}
}
