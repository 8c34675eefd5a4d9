package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"papermill/internal/document"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. Stage directories default to
// subdirectories of WorkspaceDir but may each be pointed elsewhere.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	InputDir     string `toml:"input_dir"`
	InsightsDir  string `toml:"insights_dir"`
	ContentDir   string `toml:"content_dir"`
	PublishedDir string `toml:"published_dir"`
	ArchiveDir   string `toml:"archive_dir"`
	LogDir       string `toml:"log_dir"`
}

// Watcher contains configuration for the per-stage filesystem watchers.
type Watcher struct {
	DebounceMS      int      `toml:"debounce_ms"`
	DrainIntervalMS int      `toml:"drain_interval_ms"`
	SettleMS        int      `toml:"settle_ms"`
	QueueSize       int      `toml:"queue_size"`
	Extensions      []string `toml:"extensions"`
	MinSizeBytes    int64    `toml:"min_size_bytes"`
	MaxSizeBytes    int64    `toml:"max_size_bytes"`
	IgnorePatterns  []string `toml:"ignore_patterns"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Ledger contains configuration for the SQLite pipeline event journal.
type Ledger struct {
	Enabled bool `toml:"enabled"`
}

// Enrich contains configuration for metadata enrichment.
type Enrich struct {
	MaxTags        int `toml:"max_tags"`
	MinWordLength  int `toml:"min_word_length"`
	WordsPerMinute int `toml:"words_per_minute"`
}

// Config encapsulates all configuration values for papermill.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Watcher Watcher `toml:"watcher"`
	Logging Logging `toml:"logging"`
	Ledger  Ledger  `toml:"ledger"`
	Enrich  Enrich  `toml:"enrich"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/papermill/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found; defaults apply either way.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("papermill.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// StageDirs returns the resolved directory for every configured stage.
// The archive stage is present only when archive_dir is configured (or
// derived from the workspace, which it is by default).
func (c *Config) StageDirs() map[document.Stage]string {
	dirs := make(map[document.Stage]string, 5)
	set := func(stage document.Stage, dir string) {
		if strings.TrimSpace(dir) != "" {
			dirs[stage] = dir
		}
	}
	set(document.StageInput, c.Paths.InputDir)
	set(document.StageInsights, c.Paths.InsightsDir)
	set(document.StageContent, c.Paths.ContentDir)
	set(document.StagePublished, c.Paths.PublishedDir)
	set(document.StageArchived, c.Paths.ArchiveDir)
	return dirs
}

// Debounce returns the watcher debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watcher.DebounceMS) * time.Millisecond
}

// DrainInterval returns the processing-queue drain period.
func (c *Config) DrainInterval() time.Duration {
	return time.Duration(c.Watcher.DrainIntervalMS) * time.Millisecond
}

// Settle returns how long a queue entry must age before the drain re-emits it.
func (c *Config) Settle() time.Duration {
	return time.Duration(c.Watcher.SettleMS) * time.Millisecond
}

// LedgerPath returns the SQLite journal location inside the log directory.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.LogDir, "ledger.db")
}

// LockPath returns the daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "papermill.lock")
}

// EnsureDirectories creates the stage and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	for _, dir := range c.StageDirs() {
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() error {
	expanded, err := expandPath(c.Paths.WorkspaceDir)
	if err != nil {
		return err
	}
	c.Paths.WorkspaceDir = expanded

	stageFields := map[*string]string{
		&c.Paths.InputDir:     "input",
		&c.Paths.InsightsDir:  "insights",
		&c.Paths.ContentDir:   "content",
		&c.Paths.PublishedDir: "published",
		&c.Paths.ArchiveDir:   "archive",
	}
	for field, subdir := range stageFields {
		if strings.TrimSpace(*field) == "" {
			*field = filepath.Join(c.Paths.WorkspaceDir, subdir)
			continue
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.WorkspaceDir, "logs")
	} else {
		expanded, err := expandPath(c.Paths.LogDir)
		if err != nil {
			return err
		}
		c.Paths.LogDir = expanded
	}

	normalized := make([]string, 0, len(c.Watcher.Extensions))
	for _, ext := range c.Watcher.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Watcher.Extensions = normalized

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a commented sample configuration file to the specified
// location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
