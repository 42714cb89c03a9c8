package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeSources()
	c.normalizeThresholds()
	return nil
}

func (c *Config) normalizePaths() error {
	dataDir, err := expandPath(c.Paths.DataDir)
	if err != nil {
		return fmt.Errorf("expand data_dir: %w", err)
	}
	logDir, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return fmt.Errorf("expand log_dir: %w", err)
	}
	c.Paths.DataDir = dataDir
	c.Paths.LogDir = logDir
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeSources() {
	for i := range c.Sources {
		c.Sources[i].Name = strings.ToLower(strings.TrimSpace(c.Sources[i].Name))
		c.Sources[i].Kind = strings.ToLower(strings.TrimSpace(c.Sources[i].Kind))
		c.Sources[i].Endpoint = strings.TrimSpace(c.Sources[i].Endpoint)
		c.Sources[i].Model = strings.TrimSpace(c.Sources[i].Model)
		c.Sources[i].Version = strings.TrimSpace(c.Sources[i].Version)
	}
}

func (c *Config) normalizeThresholds() {
	for i := range c.Thresholds.Rules {
		c.Thresholds.Rules[i].Source = strings.ToLower(strings.TrimSpace(c.Thresholds.Rules[i].Source))
		c.Thresholds.Rules[i].Category = strings.ToLower(strings.TrimSpace(c.Thresholds.Rules[i].Category))
	}
}
