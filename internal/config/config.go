package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/novahq/scribe/internal/capture"
)

// Default config file path.
const DefaultConfigPath = "~/.config/nova/scribe/config.yaml"

// Config holds all Scribe configuration.
type Config struct {
	Capture CaptureConfig `yaml:"capture"`
	Marking MarkingConfig `yaml:"marking"`
	Daemon  DaemonConfig  `yaml:"daemon"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// CaptureConfig tunes the event capture layer.
type CaptureConfig struct {
	BufferCeiling      int `yaml:"buffer_ceiling"`
	KeyIdleFlushMs     int `yaml:"key_idle_flush_ms"`
	ScrollDebounceMs   int `yaml:"scroll_debounce_ms"`
	MutationDebounceMs int `yaml:"mutation_debounce_ms"`
	NavPollIntervalMs  int `yaml:"nav_poll_interval_ms"`
	EventsLimit        int `yaml:"events_limit"`
}

// MarkingConfig tunes the operator marking mode.
type MarkingConfig struct {
	Modifier string `yaml:"modifier"`
	// ExitOnScroll makes any scroll leave marking mode. Policy knob:
	// the recorded behavior treats any scroll as "operator is
	// navigating", which may be over-eager for key-driven scrolling.
	ExitOnScroll *bool `yaml:"exit_on_scroll"`
}

type DaemonConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	AuthToken      string `yaml:"auth_token"`
	MaxRequestSize int    `yaml:"max_request_size"`
	// ProgressURL, when set, receives fire-and-forget live-progress
	// POSTs per recorded event.
	ProgressURL string `yaml:"progress_url"`
}

type StorageConfig struct {
	Path              string `yaml:"path"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// EngineOptions maps the capture and marking sections onto engine
// options.
func (c *Config) EngineOptions() capture.Options {
	opts := capture.DefaultOptions()
	if c.Capture.BufferCeiling > 0 {
		opts.BufferCeiling = c.Capture.BufferCeiling
	}
	if c.Capture.KeyIdleFlushMs > 0 {
		opts.KeyIdleFlush = time.Duration(c.Capture.KeyIdleFlushMs) * time.Millisecond
	}
	if c.Capture.ScrollDebounceMs > 0 {
		opts.ScrollDebounce = time.Duration(c.Capture.ScrollDebounceMs) * time.Millisecond
	}
	if c.Capture.MutationDebounceMs > 0 {
		opts.MutationDebounce = time.Duration(c.Capture.MutationDebounceMs) * time.Millisecond
	}
	if c.Capture.NavPollIntervalMs > 0 {
		opts.NavPollInterval = time.Duration(c.Capture.NavPollIntervalMs) * time.Millisecond
	}
	if c.Capture.EventsLimit > 0 {
		opts.EventsLimit = c.Capture.EventsLimit
	}
	if c.Marking.Modifier != "" {
		opts.MarkingModifier = c.Marking.Modifier
	}
	if c.Marking.ExitOnScroll != nil {
		opts.ExitMarkingOnScroll = *c.Marking.ExitOnScroll
	}
	return opts
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
