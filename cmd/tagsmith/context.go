package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"tagsmith/internal/config"
	"tagsmith/internal/logging"
	"tagsmith/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) withStore(ctx context.Context, fn func(context.Context, *config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, cfg, st)
}

// logger returns a console logger for pipeline commands. Warnings and errors
// go to stderr; table output stays clean on stdout.
func (c *commandContext) logger() *slog.Logger {
	logger, err := logging.NewForWriter(os.Stderr, logging.Options{Level: "warn", Format: "console"})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}
