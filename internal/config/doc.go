// Package config loads, normalizes, and validates the TOML configuration for
// the suggestion engine.
//
// Load resolves the config path (explicit flag, then the default location),
// overlays the file on Default(), expands ~ in path fields, and validates
// invariants such as threshold ranges and source kinds. The embedded
// sample_config.toml documents every key and is written by CreateSample.
package config
