// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Player    PlayerConfig            `yaml:"player"`
	Selection SelectionConfig         `yaml:"selection"`
	Filters   map[string]FilterConfig `yaml:"filters"`
	Engine    EngineConfig            `yaml:"engine"`
	Log       LogConfig               `yaml:"log"`
}

// PlayerConfig represents playback behaviour at startup.
type PlayerConfig struct {
	Volume        *int   `yaml:"volume" default:"100" validate:"required,gte=0,lte=100"`
	Shuffle       bool   `yaml:"shuffle"`
	Repeat        bool   `yaml:"repeat"`
	UnknownArtist string `yaml:"unknown_artist" default:"Unknown Artist"`
	Artwork       string `yaml:"artwork" default:"assets/default-album-art.jpg"`
	OnLoadError   string `yaml:"on_load_error" default:"ignore" validate:"oneof=ignore skip surface"`
}

// SelectionConfig represents how user paths are expanded.
type SelectionConfig struct {
	Accept    []string `yaml:"accept" default:"[\"audio/*\"]" validate:"min=1,dive,required"`
	Recursive *bool    `yaml:"recursive" default:"true"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// EngineConfig represents audio output configuration.
type EngineConfig struct {
	SampleRate int `yaml:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	BufferMs   int `yaml:"buffer_ms" default:"100" validate:"gte=10,lte=2000"`
	TickMs     int `yaml:"tick_ms" default:"250" validate:"gte=20,lte=5000"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" default:"5" validate:"gte=1"`
	MaxBackups int    `yaml:"max_backups" default:"2" validate:"gte=0"`
}

// defaultFilters is used when the config has no filters section.
func defaultFilters() map[string]FilterConfig {
	return map[string]FilterConfig{
		"hidden_file_filter":    {Enabled: true},
		"duplicate_path_filter": {Enabled: true},
	}
}

// Default returns the configuration used when no file is present.
func Default() (*Config, error) {
	return parse(nil)
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults. Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if cfg.Filters == nil {
		cfg.Filters = defaultFilters()
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() error {
	if v := os.Getenv("TAPEDECK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TAPEDECK_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("TAPEDECK_VOLUME"); v != "" {
		volume, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid TAPEDECK_VOLUME: %q", v)
		}
		c.Player.Volume = &volume
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// VolumeLevel returns the initial volume in 0..100.
func (c *Config) VolumeLevel() int {
	if c.Player.Volume == nil {
		return 100
	}
	return *c.Player.Volume
}

// SetVolumeLevel overrides the initial volume.
func (c *Config) SetVolumeLevel(level int) {
	c.Player.Volume = &level
}

// IsRecursive reports whether directories are walked recursively.
func (c *Config) IsRecursive() bool {
	return c.Selection.Recursive == nil || *c.Selection.Recursive
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}

// Buffer returns the output buffer length.
func (e EngineConfig) Buffer() time.Duration {
	return time.Duration(e.BufferMs) * time.Millisecond
}

// Tick returns the interval between time updates.
func (e EngineConfig) Tick() time.Duration {
	return time.Duration(e.TickMs) * time.Millisecond
}
