package predict

import (
	"context"
	"log/slog"
	"sync/atomic"

	"tagsmith/internal/config"
	"tagsmith/internal/logging"
	"tagsmith/internal/services"
	"tagsmith/internal/store"
)

// ModelRegistry is the model version lookup the catalog needs from the store.
type ModelRegistry interface {
	ActiveModelVersion(ctx context.Context, modelName string) (*store.ModelVersion, error)
}

// Catalog owns the live set of prediction sources. The set is rebuilt on
// Reload and swapped atomically: attempts that grabbed a snapshot keep the
// sources they started with while new attempts see the fresh set.
type Catalog struct {
	cfg     *config.Config
	models  ModelRegistry
	logger  *slog.Logger
	opts    []HTTPOption
	current atomic.Pointer[[]Source]
}

// NewCatalog constructs a catalog; call Reload before the first Sources use.
func NewCatalog(cfg *config.Config, models ModelRegistry, logger *slog.Logger, opts ...HTTPOption) *Catalog {
	return &Catalog{
		cfg:    cfg,
		models: models,
		logger: logging.NewComponentLogger(logger, "predict"),
		opts:   opts,
	}
}

// Sources returns the current source snapshot. The returned slice must not
// be mutated.
func (c *Catalog) Sources() []Source {
	if snapshot := c.current.Load(); snapshot != nil {
		return *snapshot
	}
	return nil
}

// Reload rebuilds the source set from configuration and the model registry.
// A source configured with a model name picks up the registry's active
// version for that model, which is how a newly activated artifact reaches
// subsequent generation attempts without a restart.
func (c *Catalog) Reload(ctx context.Context) error {
	sources := make([]Source, 0, len(c.cfg.Sources))
	for _, sourceCfg := range c.cfg.Sources {
		version := sourceCfg.Version
		if sourceCfg.Model != "" {
			active, err := c.models.ActiveModelVersion(ctx, sourceCfg.Model)
			if err != nil {
				return services.Wrap(services.ErrTransient, "predict", "reload", "active model lookup failed", err)
			}
			if active != nil {
				version = active.Version
			}
		}
		sources = append(sources, NewHTTPSource(HTTPConfig{
			Name:           sourceCfg.Name,
			Version:        version,
			Kind:           Kind(sourceCfg.Kind),
			Endpoint:       sourceCfg.Endpoint,
			Model:          sourceCfg.Model,
			TimeoutSeconds: c.cfg.SourceTimeoutSeconds(sourceCfg),
		}, c.opts...))
		c.logger.Debug("source loaded",
			logging.String(logging.FieldSource, sourceCfg.Name),
			logging.String("version", version),
		)
	}

	c.current.Store(&sources)
	c.logger.Info("source catalog reloaded", logging.Int("sources", len(sources)))
	return nil
}
