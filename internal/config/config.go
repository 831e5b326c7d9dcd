package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/zeusync/scenecore/internal/core/entity"
	"github.com/zeusync/scenecore/internal/core/observability/log"
	"github.com/zeusync/scenecore/internal/core/world"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	World   WorldConfig   `toml:"world" yaml:"world"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Bench   BenchConfig   `toml:"bench" yaml:"bench"`
}

type WorldConfig struct {
	MaxEntities     int `toml:"max_entities" yaml:"max_entities"`
	GlobalPartition int `toml:"global_partition" yaml:"global_partition"` // first scene index
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`   // debug, info, warn, error
	Format string `toml:"format" yaml:"format"` // json or console
}

type BenchConfig struct {
	Worlds   int           `toml:"worlds" yaml:"worlds"`
	Ticks    int           `toml:"ticks" yaml:"ticks"`
	TickRate time.Duration `toml:"tick_rate" yaml:"tick_rate"`
	Scenario string        `toml:"scenario" yaml:"scenario"`
}

// Load reads path, decoding TOML or YAML by extension, on top of the
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	w := world.DefaultConfig()
	return &Config{
		World: WorldConfig{
			MaxEntities:     w.MaxEntities,
			GlobalPartition: w.GlobalPartition,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Bench: BenchConfig{
			Worlds:   1,
			Ticks:    600,
			TickRate: 16 * time.Millisecond,
		},
	}
}

// Validate reports every field outside its allowed range.
func (c *Config) Validate() error {
	var errs []error
	if c.World.MaxEntities <= 0 || c.World.MaxEntities > entity.MaxLimit {
		errs = append(errs, fmt.Errorf("%w: world.max_entities %d not in (0, %d]", ErrInvalid, c.World.MaxEntities, entity.MaxLimit))
	}
	if c.World.GlobalPartition <= 0 || c.World.GlobalPartition >= c.World.MaxEntities {
		errs = append(errs, fmt.Errorf("%w: world.global_partition %d not in (0, max_entities)", ErrInvalid, c.World.GlobalPartition))
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: logging.level: %w", ErrInvalid, err))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("%w: logging.format %q", ErrInvalid, c.Logging.Format))
	}
	if c.Bench.Worlds <= 0 {
		errs = append(errs, fmt.Errorf("%w: bench.worlds %d", ErrInvalid, c.Bench.Worlds))
	}
	if c.Bench.Ticks < 0 || c.Bench.TickRate < 0 {
		errs = append(errs, fmt.Errorf("%w: bench ticks %d, tick_rate %s", ErrInvalid, c.Bench.Ticks, c.Bench.TickRate))
	}
	return errors.Join(errs...)
}

// ToWorld converts to the capacity the core consumes.
func (c *Config) ToWorld() world.Config {
	return world.Config{
		MaxEntities:     c.World.MaxEntities,
		GlobalPartition: c.World.GlobalPartition,
	}
}

// Logger builds the logger described by the logging section.
func (c *Config) Logger() (*log.Logger, error) {
	level, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	return log.NewWithFormat(level, c.Logging.Format)
}
