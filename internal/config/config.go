package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Stress    StressConfig    `toml:"stress"`
	Scenarios ScenariosConfig `toml:"scenarios"`
	Scripts   ScriptsConfig   `toml:"scripts"`
	Logging   LoggingConfig   `toml:"logging"`
}

// StressConfig drives the fill / verify / erase pass over a large set.
type StressConfig struct {
	Enabled     bool   `toml:"enabled"`
	Capacity    uint32 `toml:"capacity"`
	EraseStride uint32 `toml:"erase_stride"` // indices with i % stride != 0 are erased
	Rounds      int    `toml:"rounds"`
}

type ScenariosConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ScriptsConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the checks cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Stress.Enabled {
		if c.Stress.Capacity == 0 {
			errs = append(errs, errors.New("stress.capacity must be positive"))
		}
		if c.Stress.EraseStride == 0 {
			errs = append(errs, errors.New("stress.erase_stride must be positive"))
		}
		if c.Stress.Rounds < 1 {
			errs = append(errs, errors.New("stress.rounds must be at least 1"))
		}
	}
	if c.Scenarios.Enabled && c.Scenarios.Dir == "" {
		errs = append(errs, errors.New("scenarios.dir is empty"))
	}
	if c.Scripts.Enabled && c.Scripts.Dir == "" {
		errs = append(errs, errors.New("scripts.dir is empty"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q: want json or console", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func Defaults() *Config {
	return &Config{
		Stress: StressConfig{
			Enabled:     true,
			Capacity:    65536,
			EraseStride: 3,
			Rounds:      1,
		},
		Scenarios: ScenariosConfig{
			Enabled: true,
			Dir:     "data/scenarios",
		},
		Scripts: ScriptsConfig{
			Enabled: true,
			Dir:     "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
