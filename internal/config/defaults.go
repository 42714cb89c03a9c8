package config

const (
	defaultDataDir              = "~/.local/share/tagsmith"
	defaultLogDir               = "~/.local/share/tagsmith/logs"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultWorkers              = 2
	defaultMaxAttempts          = 3
	defaultRetryBackoffSeconds  = 5
	defaultSourceTimeoutSeconds = 30
	defaultMaxAliasDepth        = 8
	defaultPropagationThreshold = 0.70
	defaultPropagationDecay     = 0.9
	defaultConfidenceThreshold  = 0.5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Workflow: Workflow{
			Workers:              defaultWorkers,
			MaxAttempts:          defaultMaxAttempts,
			RetryBackoffSeconds:  defaultRetryBackoffSeconds,
			SourceTimeoutSeconds: defaultSourceTimeoutSeconds,
		},
		Taxonomy: Taxonomy{
			MaxAliasDepth:        defaultMaxAliasDepth,
			PropagationThreshold: defaultPropagationThreshold,
			PropagationDecay:     defaultPropagationDecay,
		},
		Thresholds: Thresholds{
			Default: defaultConfidenceThreshold,
		},
	}
}
