package config

import (
	"errors"
	"fmt"
)

var validSourceKinds = map[string]struct{}{
	"custom":  {},
	"general": {},
}

var validCategories = map[string]struct{}{
	"theme":     {},
	"source":    {},
	"character": {},
	"artist":    {},
}

// Validate checks configuration invariants after normalization.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateTaxonomy(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	return c.validateThresholds()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir is required")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir is required")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers <= 0 {
		return errors.New("workflow.workers must be positive")
	}
	if c.Workflow.MaxAttempts <= 0 {
		return errors.New("workflow.max_attempts must be positive")
	}
	if c.Workflow.RetryBackoffSeconds < 0 {
		return errors.New("workflow.retry_backoff_seconds must not be negative")
	}
	if c.Workflow.SourceTimeoutSeconds <= 0 {
		return errors.New("workflow.source_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTaxonomy() error {
	if c.Taxonomy.MaxAliasDepth <= 0 {
		return errors.New("taxonomy.max_alias_depth must be positive")
	}
	if c.Taxonomy.PropagationThreshold < 0 || c.Taxonomy.PropagationThreshold > 1 {
		return errors.New("taxonomy.propagation_threshold must be within [0,1]")
	}
	if c.Taxonomy.PropagationDecay <= 0 || c.Taxonomy.PropagationDecay > 1 {
		return errors.New("taxonomy.propagation_decay must be within (0,1]")
	}
	return nil
}

func (c *Config) validateSources() error {
	seen := make(map[string]struct{}, len(c.Sources))
	for i, source := range c.Sources {
		if source.Name == "" {
			return fmt.Errorf("sources[%d].name is required", i)
		}
		if _, dup := seen[source.Name]; dup {
			return fmt.Errorf("sources[%d].name %q is duplicated", i, source.Name)
		}
		seen[source.Name] = struct{}{}
		if _, ok := validSourceKinds[source.Kind]; !ok {
			return fmt.Errorf("sources[%d].kind %q must be one of custom, general", i, source.Kind)
		}
		if source.TimeoutSeconds < 0 {
			return fmt.Errorf("sources[%d].timeout_seconds must not be negative", i)
		}
	}
	return nil
}

func (c *Config) validateThresholds() error {
	if c.Thresholds.Default < 0 || c.Thresholds.Default > 1 {
		return errors.New("thresholds.default must be within [0,1]")
	}
	for i, rule := range c.Thresholds.Rules {
		if rule.Source == "" {
			return fmt.Errorf("thresholds.rules[%d].source is required", i)
		}
		if _, ok := validCategories[rule.Category]; !ok {
			return fmt.Errorf("thresholds.rules[%d].category %q must be one of theme, source, character, artist", i, rule.Category)
		}
		if rule.Minimum < 0 || rule.Minimum > 1 {
			return fmt.Errorf("thresholds.rules[%d].minimum must be within [0,1]", i)
		}
	}
	return nil
}
