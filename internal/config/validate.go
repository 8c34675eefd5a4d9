package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWatcher(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateEnrich(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	seen := make(map[string]string, 5)
	for stage, dir := range c.StageDirs() {
		if other, ok := seen[dir]; ok {
			return fmt.Errorf("stage directories %s and %s both resolve to %q", other, stage, dir)
		}
		seen[dir] = string(stage)
	}
	return nil
}

func (c *Config) validateWatcher() error {
	if c.Watcher.DebounceMS <= 0 {
		return errors.New("watcher.debounce_ms must be positive")
	}
	if c.Watcher.DrainIntervalMS <= 0 {
		return errors.New("watcher.drain_interval_ms must be positive")
	}
	if c.Watcher.SettleMS < 0 {
		return errors.New("watcher.settle_ms must not be negative")
	}
	if c.Watcher.QueueSize <= 0 {
		return errors.New("watcher.queue_size must be positive")
	}
	if c.Watcher.MinSizeBytes < 0 {
		return errors.New("watcher.min_size_bytes must not be negative")
	}
	if c.Watcher.MaxSizeBytes < 0 {
		return errors.New("watcher.max_size_bytes must not be negative")
	}
	if c.Watcher.MaxSizeBytes > 0 && c.Watcher.MinSizeBytes > c.Watcher.MaxSizeBytes {
		return errors.New("watcher.min_size_bytes must not exceed watcher.max_size_bytes")
	}
	for _, pattern := range c.Watcher.IgnorePatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("watcher.ignore_patterns entry %q: %w", pattern, err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateEnrich() error {
	if c.Enrich.MaxTags < 0 {
		return errors.New("enrich.max_tags must not be negative")
	}
	if c.Enrich.MinWordLength <= 0 {
		return errors.New("enrich.min_word_length must be positive")
	}
	if c.Enrich.WordsPerMinute <= 0 {
		return errors.New("enrich.words_per_minute must be positive")
	}
	return nil
}
