// Package config loads the timeline YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/timeline/internal/model"
	"github.com/roach88/timeline/internal/session"
	"github.com/roach88/timeline/internal/undo"
)

// DefaultDBName is the database file name used when none is configured.
const DefaultDBName = "timeline.db"

// DefaultFileName is the configuration file looked up in the user config dir.
const DefaultFileName = "config.yaml"

// Config is the full configuration file.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Session  SessionConfig  `yaml:"session"`
	Undo     UndoConfig     `yaml:"undo"`
	Restore  session.Policy `yaml:"restore"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// StorageConfig locates the session database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig selects the session record.
type SessionConfig struct {
	ID string `yaml:"id"`
}

// UndoConfig bounds history.
type UndoConfig struct {
	MaxSize int `yaml:"max_size"`
}

// AutosaveConfig controls debounced saving.
type AutosaveConfig struct {
	Enabled bool          `yaml:"enabled"`
	Delay   time.Duration `yaml:"delay"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Storage:  StorageConfig{Path: defaultDBPath()},
		Session:  SessionConfig{ID: model.DefaultSessionID},
		Undo:     UndoConfig{MaxSize: undo.DefaultMaxSize},
		Restore:  session.DefaultPolicy(),
		Autosave: AutosaveConfig{Enabled: true, Delay: time.Second},
		Logging:  LoggingConfig{Level: "warn", Format: "text"},
	}
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultDBName
	}
	return filepath.Join(dir, "timeline", DefaultDBName)
}

// DefaultPath returns the configuration file location, or "" if the user
// config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "timeline", DefaultFileName)
}

// Load reads the configuration at path on top of the defaults.
// A missing file is not an error; unknown keys are.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required"))
	}
	if c.Session.ID == "" {
		errs = append(errs, errors.New("session.id is required"))
	}
	if c.Undo.MaxSize < 1 {
		errs = append(errs, fmt.Errorf("undo.max_size must be positive, got %d", c.Undo.MaxSize))
	}
	if c.Restore.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("restore.max_age must not be negative, got %s", c.Restore.MaxAge))
	}
	if c.Restore.CountdownSeconds < 0 {
		errs = append(errs, fmt.Errorf("restore.countdown_seconds must not be negative, got %d", c.Restore.CountdownSeconds))
	}
	if c.Autosave.Delay < 0 {
		errs = append(errs, fmt.Errorf("autosave.delay must not be negative, got %s", c.Autosave.Delay))
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", s)
	}
}

// NewLogger builds the slog logger described by c, writing to w.
// verbose forces debug level.
func (c LoggingConfig) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level, err := ParseLevel(c.Level)
	if err != nil {
		level = slog.LevelWarn
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
