package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jamesainslie/membw/pkg/membw/logging"
	"github.com/jamesainslie/membw/pkg/membw/types"
)

// EnvPrefix prefixes environment overrides (e.g., MEMBW_SETTLE=1s).
const EnvPrefix = "MEMBW"

// ErrInvalidConfig indicates a configuration value that cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrNoTiersSelected indicates that a tier selection matched nothing.
var ErrNoTiersSelected = errors.New("no tiers selected")

// TierConfig is one tier as written in the config file.
type TierConfig struct {
	Label      string `mapstructure:"label" yaml:"label"`
	Size       string `mapstructure:"size" yaml:"size"`
	Iterations int    `mapstructure:"iterations" yaml:"iterations"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level    string         `mapstructure:"level" yaml:"level"`
	Path     string         `mapstructure:"path" yaml:"path"`
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

// Config represents the application configuration.
type Config struct {
	Tiers     []TierConfig  `mapstructure:"tiers" yaml:"tiers"`
	Settle    time.Duration `mapstructure:"settle" yaml:"settle"`
	Scale     float64       `mapstructure:"scale" yaml:"scale"`
	Output    string        `mapstructure:"output" yaml:"output"`
	Template  string        `mapstructure:"template" yaml:"template,omitempty"`
	MaxMemory string        `mapstructure:"max_memory" yaml:"max_memory"`
	Logging   LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	tiers := make([]map[string]interface{}, 0, 4)
	for _, t := range DefaultTiers() {
		tiers = append(tiers, map[string]interface{}{
			"label":      t.Label,
			"size":       t.Size,
			"iterations": t.Iterations,
		})
	}

	v.SetDefault("tiers", tiers)
	v.SetDefault("settle", DefaultSettle)
	v.SetDefault("scale", DefaultScale)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("template", "")
	v.SetDefault("max_memory", DefaultMaxMemory)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "") // Empty means use logging.DefaultLogPath
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", DefaultLogMaxAge)
	v.SetDefault("logging.rotation.max_backups", DefaultLogMaxBackups)
}

// Prepare sets defaults, config search paths and environment binding on v.
// An explicit configFile replaces the search paths.
func Prepare(v *viper.Viper, configFile string) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
}

// Read reads the config file into v. A missing file in the search paths is
// not an error; a missing explicit file is.
func Read(v *viper.Viper) error {
	// ConfigFileUsed is only set before reading when SetConfigFile was called.
	if explicit := v.ConfigFileUsed(); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Decode unmarshals v into a Config.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - configFile, when non-empty
//   - $XDG_CONFIG_HOME/membw/config.yaml
//   - $HOME/.config/membw/config.yaml
//
// Environment variables are prefixed with MEMBW_ (e.g., MEMBW_OUTPUT=json).
func Load(configFile string) (*Config, error) {
	v := viper.New()
	Prepare(v, configFile)
	if err := Read(v); err != nil {
		return nil, err
	}
	return Decode(v)
}

// BenchmarkTiers converts the configured tiers into benchmark tiers,
// applying Scale to every iteration count.
func (c *Config) BenchmarkTiers() ([]types.Tier, error) {
	if len(c.Tiers) == 0 {
		return nil, fmt.Errorf("%w: no tiers configured", ErrInvalidConfig)
	}

	scale := c.Scale
	if scale == 0 {
		scale = DefaultScale
	}
	if scale < 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("%w: scale must be positive, got %v", ErrInvalidConfig, c.Scale)
	}

	tiers := make([]types.Tier, 0, len(c.Tiers))
	for i, tc := range c.Tiers {
		if strings.TrimSpace(tc.Label) == "" {
			return nil, fmt.Errorf("%w: tier %d has no label", ErrInvalidConfig, i+1)
		}

		size, err := types.ParseSize(tc.Size)
		if err != nil {
			return nil, fmt.Errorf("%w: tier %q: %w", ErrInvalidConfig, tc.Label, err)
		}
		if size == 0 {
			return nil, fmt.Errorf("%w: tier %q has zero size", ErrInvalidConfig, tc.Label)
		}
		if tc.Iterations < 1 {
			return nil, fmt.Errorf("%w: tier %q needs at least one iteration, got %d",
				ErrInvalidConfig, tc.Label, tc.Iterations)
		}

		tiers = append(tiers, types.Tier{
			Label:           tc.Label,
			WorkingSetBytes: size,
			Iterations:      ScaleIterations(tc.Iterations, scale),
		})
	}
	return tiers, nil
}

// ScaleIterations multiplies n by scale, rounding to the nearest whole
// iteration and never going below one.
func ScaleIterations(n int, scale float64) int {
	scaled := math.Round(float64(n) * scale)
	if scaled < 1 {
		return 1
	}
	if scaled > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(scaled)
}

// SelectTiers returns the tiers whose label starts with one of the given
// selectors, compared case-insensitively and ignoring spaces, in their
// original order. An empty selector list returns every tier.
func SelectTiers(tiers []types.Tier, selectors []string) ([]types.Tier, error) {
	if len(selectors) == 0 {
		return tiers, nil
	}

	normalize := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	}

	matched := make([]bool, len(tiers))
	for _, sel := range selectors {
		want := normalize(sel)
		if want == "" {
			continue
		}
		found := false
		for i, t := range tiers {
			if strings.HasPrefix(normalize(t.Label), want) {
				matched[i] = true
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q matches no configured tier", ErrNoTiersSelected, sel)
		}
	}

	selected := make([]types.Tier, 0, len(tiers))
	for i, t := range tiers {
		if matched[i] {
			selected = append(selected, t)
		}
	}
	if len(selected) == 0 {
		return nil, ErrNoTiersSelected
	}
	return selected, nil
}

// MemoryLimit resolves MaxMemory to a byte count. "auto" (or empty) returns
// totalRAM, "none" or "0" returns zero for no limit.
func (c *Config) MemoryLimit(totalRAM uint64) (uint64, error) {
	switch strings.ToLower(strings.TrimSpace(c.MaxMemory)) {
	case "", DefaultMaxMemory:
		return totalRAM, nil
	case "none", "0":
		return 0, nil
	}

	limit, err := types.ParseSize(c.MaxMemory)
	if err != nil {
		return 0, fmt.Errorf("%w: max_memory: %w", ErrInvalidConfig, err)
	}
	return limit, nil
}

// LoggingOptions converts the logging section for logging.Init.
func (c *Config) LoggingOptions() (logging.Config, error) {
	rotation := logging.DefaultRotationConfig()
	if c.Logging.Rotation.MaxSize != "" {
		size, err := types.ParseSize(c.Logging.Rotation.MaxSize)
		if err != nil {
			return logging.Config{}, fmt.Errorf("%w: logging.rotation.max_size: %w", ErrInvalidConfig, err)
		}
		rotation.MaxSize = int64(size)
	}
	rotation.MaxAge = c.Logging.Rotation.MaxAge
	rotation.MaxBackups = c.Logging.Rotation.MaxBackups

	return logging.Config{
		Level:    c.Logging.Level,
		Path:     c.Logging.Path,
		Rotation: rotation,
	}, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "membw"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "membw"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault writes the default config file to path, creating parent
// directories. It reports false without touching the file if one exists.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(DefaultConfigYAML()), 0o644); err != nil {
		return false, fmt.Errorf("failed to write default config: %w", err)
	}

	return true, nil
}

// DefaultConfigYAML returns the commented default config file.
func DefaultConfigYAML() string {
	var tiers strings.Builder
	for _, t := range DefaultTiers() {
		fmt.Fprintf(&tiers, "  - label: %q\n    size: %s\n    iterations: %d\n", t.Label, t.Size, t.Iterations)
	}

	return fmt.Sprintf(`# membw Memory Bandwidth Benchmark Configuration

# Working sets to measure, in report order. Sizes accept K/M/G/T with
# optional iB or B suffix, all binary (1K = 1024 bytes).
tiers:
%s
# Pause between tiers so the system can settle
settle: %s

# Multiplier applied to every tier's iteration count (minimum 1 iteration)
scale: %g

# Report format: pretty, plain, json, jsonl, yaml, csv, tsv, markdown, template
output: %s

# Cap for both buffers of a single tier: auto (total RAM), none, or a size
max_memory: %s

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: %s
  # Log file path (empty means use default: $XDG_STATE_HOME/membw/membw.log)
  path: ""
  # Log rotation settings
  rotation:
    max_size: %s
    max_age: %d       # days
    max_backups: %d
`, tiers.String(), DefaultSettle, DefaultScale, DefaultOutput, DefaultMaxMemory,
		DefaultLogLevel, DefaultLogMaxSize, DefaultLogMaxAge, DefaultLogMaxBackups)
}
