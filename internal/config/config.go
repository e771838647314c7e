// Package config loads the imsread configuration. Files ending in .toml are
// parsed as TOML, anything else as YAML.
package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/lumberjack"
	"gopkg.in/yaml.v3"
)

// Config is the imsread configuration.
type Config struct {
	Export struct {
		// Ext is the extension of exported channel stacks.
		Ext string `yaml:"ext" toml:"ext"`
		// OutDir is prepended to relative export bases.
		OutDir string `yaml:"outDir" toml:"outDir"`
	} `yaml:"export" toml:"export"`

	Plot struct {
		// Width and Height of the figure in inches.
		Width  float64 `yaml:"width" toml:"width"`
		Height float64 `yaml:"height" toml:"height"`
		// Colors is the number of heat map palette steps.
		Colors int `yaml:"colors" toml:"colors"`
	} `yaml:"plot" toml:"plot"`

	Logging LogConfig `yaml:"logging" toml:"logging"`
}

// LogConfig selects where log output goes.
type LogConfig struct {
	// Logfile, when set, receives the log through a rotating writer.
	Logfile string `yaml:"logfile" toml:"logfile"`
	MaxSize int    `yaml:"maxSize" toml:"max_log_size"` // megabytes
	MaxAge  int    `yaml:"maxAge" toml:"max_log_age"`   // days
	Verbose bool   `yaml:"verbose" toml:"verbose"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Export.Ext = ".tif"
	cfg.Export.OutDir = ""

	cfg.Plot.Width = 6
	cfg.Plot.Height = 6
	cfg.Plot.Colors = 256

	cfg.Logging.MaxSize = 100
	cfg.Logging.MaxAge = 28

	return cfg
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads configuration from path. A missing file yields the
// defaults; keys absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Export.Ext != "" && !strings.HasPrefix(c.Export.Ext, ".") {
		return fmt.Errorf("export.ext %q must start with a dot", c.Export.Ext)
	}
	if c.Plot.Width <= 0 || c.Plot.Height <= 0 {
		return fmt.Errorf("plot size %gx%g must be positive", c.Plot.Width, c.Plot.Height)
	}
	if c.Plot.Colors < 2 {
		return fmt.Errorf("plot.colors must be at least 2, got %d", c.Plot.Colors)
	}
	return nil
}

// SaveConfig writes cfg to path, as TOML or YAML depending on the extension.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		data = []byte(sb.String())
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// ExportBase resolves base against the configured output directory.
func (c *Config) ExportBase(base string) string {
	if c.Export.OutDir == "" || filepath.IsAbs(base) {
		return base
	}
	return filepath.Join(c.Export.OutDir, base)
}

// Logger builds the logger described by c. Without a log file, output goes
// to stderr. Non-verbose loggers discard everything. The returned closer
// releases the log file.
func (c *LogConfig) Logger(prefix string) (*log.Logger, io.Closer) {
	if !c.Verbose {
		return log.New(io.Discard, prefix, 0), io.NopCloser(nil)
	}
	if c.Logfile == "" {
		return log.New(os.Stderr, prefix, log.LstdFlags|log.Lmsgprefix), io.NopCloser(nil)
	}
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize,
		MaxAge:   c.MaxAge,
	}
	return log.New(l, prefix, log.LstdFlags|log.Lmsgprefix), l
}
