package config

const (
	defaultWorkspaceDir    = "~/.local/share/papermill/workspace"
	defaultDebounceMS      = 500
	defaultDrainIntervalMS = 1000
	defaultSettleMS        = 1000
	defaultQueueSize       = 256
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultMaxTags         = 5
	defaultMinWordLength   = 5
	defaultWordsPerMinute  = 200
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
		},
		Watcher: Watcher{
			DebounceMS:      defaultDebounceMS,
			DrainIntervalMS: defaultDrainIntervalMS,
			SettleMS:        defaultSettleMS,
			QueueSize:       defaultQueueSize,
			Extensions:      []string{".md", ".txt"},
			IgnorePatterns:  []string{`(^|/)\.`, `\.tmp-[^/]*$`},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Enrich: Enrich{
			MaxTags:        defaultMaxTags,
			MinWordLength:  defaultMinWordLength,
			WordsPerMinute: defaultWordsPerMinute,
		},
	}
}
