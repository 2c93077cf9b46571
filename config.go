package wasmcoverage

import (
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-coverage/errors"
)

// Config is the recognized run configuration surface. The zero value is
// usable: Normalize fills in defaults for any field left at zero.
//
// WorkStealing is a pointer so a YAML file can distinguish "not set" (use
// the default, which is on) from an explicit false.
type Config struct {
	// Workers is the number of worker goroutines. 0 means the detected
	// parallelism of the host.
	Workers int `yaml:"workers"`

	// WorkStealing lets idle workers pull superblocks from busy peers.
	// Nil means enabled.
	WorkStealing *bool `yaml:"work_stealing"`

	// FlushThreshold is the number of increments between automatic flush
	// checks in each worker's local counters. 0 means 1000.
	FlushThreshold int `yaml:"flush_threshold"`

	// Granularity selects which identifier space the collector records.
	Granularity Granularity `yaml:"granularity"`

	// TileSize is the target number of blocks per superblock when tiling.
	// 0 means 16.
	TileSize int `yaml:"tile_size"`
}

const (
	DefaultFlushThreshold = 1000
	DefaultTileSize       = 16
)

// DefaultConfig returns a fully populated configuration.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills zero-valued fields with defaults.
func (c *Config) Normalize() {
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.WorkStealing == nil {
		enabled := true
		c.WorkStealing = &enabled
	}
	if c.FlushThreshold == 0 {
		c.FlushThreshold = DefaultFlushThreshold
	}
	if c.TileSize == 0 {
		c.TileSize = DefaultTileSize
	}
}

// WorkStealingEnabled reports whether stealing is on, applying the default
// when the field was never set.
func (c *Config) WorkStealingEnabled() bool {
	return c.WorkStealing == nil || *c.WorkStealing
}

// Validate checks field ranges. Call after Normalize.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "workers must be >= 0, got %d", c.Workers)
	}
	if c.FlushThreshold < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "flush_threshold must be >= 0, got %d", c.FlushThreshold)
	}
	if c.TileSize < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "tile_size must be >= 0, got %d", c.TileSize)
	}
	if c.Granularity > GranularityEdge {
		return errors.InvalidInput(errors.PhaseConfig, "unknown granularity %d", uint8(c.Granularity))
	}
	return nil
}

// UnmarshalYAML lets granularity appear by name ("block", "function",
// "edge") in configuration files.
func (g *Granularity) UnmarshalYAML(value *yaml.Node) error {
	return g.UnmarshalText([]byte(value.Value))
}

// MarshalYAML serializes granularity by name.
func (g Granularity) MarshalYAML() (any, error) {
	return g.String(), nil
}

// LoadConfig reads a YAML configuration file, normalizes it, and validates
// the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.IO(errors.PhaseConfig, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration bytes.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("parse yaml").
			Cause(err).
			Build()
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
