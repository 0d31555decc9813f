package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/gamestate/internal/core/observability/log"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Debugging is fixed at build time, see the debugging build tag.
	Debugging  bool             `toml:"-" yaml:"-"`
	Loop       LoopConfig       `toml:"loop" yaml:"loop"`
	Validation ValidationConfig `toml:"validation" yaml:"validation"`
	Logging    LoggingConfig    `toml:"logging" yaml:"logging"`
	Overlay    OverlayConfig    `toml:"overlay" yaml:"overlay"`
}

type LoopConfig struct {
	TickRate  time.Duration `toml:"tick_rate" yaml:"tick_rate"`
	FixedStep time.Duration `toml:"fixed_step" yaml:"fixed_step"`
}

type ValidationConfig struct {
	Workers int `toml:"workers" yaml:"workers"` // 0 = GOMAXPROCS
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // json or console
}

type OverlayConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Address string `toml:"address" yaml:"address"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Debugging: Debugging,
		Loop: LoopConfig{
			TickRate:  time.Second / 60,
			FixedStep: time.Second / 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Overlay: OverlayConfig{
			Enabled: Debugging,
			Address: "127.0.0.1:7777",
		},
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file over Default and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Debugging = Debugging

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Loop.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: loop.tick_rate must be positive", ErrInvalidConfig))
	}
	if c.Loop.FixedStep <= 0 {
		errs = append(errs, fmt.Errorf("%w: loop.fixed_step must be positive", ErrInvalidConfig))
	}
	if c.Validation.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: validation.workers must not be negative", ErrInvalidConfig))
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: logging.level: %w", ErrInvalidConfig, err))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("%w: logging.format must be json or console, got %q", ErrInvalidConfig, c.Logging.Format))
	}
	if c.Overlay.Enabled && c.Overlay.Address == "" {
		errs = append(errs, fmt.Errorf("%w: overlay.address is required when the overlay is enabled", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}
