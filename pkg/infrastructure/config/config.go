package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/vsinha/balance/pkg/infrastructure/simplex"
)

const envPrefix = "BALANCE"

// Config is the full runtime configuration
type Config struct {
	Solver  SolverConfig  `mapstructure:"solver"`
	Log     LogConfig     `mapstructure:"log"`
	Output  OutputConfig  `mapstructure:"output"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// SolverConfig tunes the simplex backend
type SolverConfig struct {
	Tolerance            float64       `mapstructure:"tolerance"`
	IntegralityTolerance float64       `mapstructure:"integrality_tolerance"`
	FeasibilityTolerance float64       `mapstructure:"feasibility_tolerance"`
	MaxNodes             int           `mapstructure:"max_nodes"`
	TimeLimit            time.Duration `mapstructure:"time_limit"`
	RelativeGap          float64       `mapstructure:"relative_gap"`
}

// LogConfig selects the logger level and encoding
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig selects how plans are rendered
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// BatchConfig bounds concurrent solves
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	defaults := simplex.DefaultOptions()
	v.SetDefault("solver.tolerance", defaults.Tolerance)
	v.SetDefault("solver.integrality_tolerance", defaults.IntegralityTolerance)
	v.SetDefault("solver.feasibility_tolerance", defaults.FeasibilityTolerance)
	v.SetDefault("solver.max_nodes", defaults.MaxNodes)
	v.SetDefault("solver.time_limit", defaults.TimeLimit)
	v.SetDefault("solver.relative_gap", defaults.RelativeGap)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("output.format", "text")
	v.SetDefault("output.dir", "")
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("metrics.addr", "")
}

// Load reads configuration from an optional file, a .env file, and BALANCE_*
// environment variables, in increasing order of precedence. Flags bound to v
// before Load take precedence over all of them.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	var errs []error
	if c.Solver.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("solver.tolerance must be positive, got %g", c.Solver.Tolerance))
	}
	if c.Solver.IntegralityTolerance <= 0 || c.Solver.IntegralityTolerance >= 0.5 {
		errs = append(errs, fmt.Errorf("solver.integrality_tolerance must be in (0, 0.5), got %g", c.Solver.IntegralityTolerance))
	}
	if c.Solver.FeasibilityTolerance <= 0 {
		errs = append(errs, fmt.Errorf("solver.feasibility_tolerance must be positive, got %g", c.Solver.FeasibilityTolerance))
	}
	if c.Solver.MaxNodes < 1 {
		errs = append(errs, fmt.Errorf("solver.max_nodes must be at least 1, got %d", c.Solver.MaxNodes))
	}
	if c.Solver.TimeLimit <= 0 {
		errs = append(errs, fmt.Errorf("solver.time_limit must be positive, got %s", c.Solver.TimeLimit))
	}
	if c.Solver.RelativeGap < 0 || c.Solver.RelativeGap >= 1 {
		errs = append(errs, fmt.Errorf("solver.relative_gap must be in [0, 1), got %g", c.Solver.RelativeGap))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	switch c.Output.Format {
	case "text", "json", "csv":
	default:
		errs = append(errs, fmt.Errorf("output.format must be text, json or csv, got %q", c.Output.Format))
	}
	if c.Batch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency))
	}
	return errors.Join(errs...)
}

// SolverOptions converts the solver section into backend options
func (c *Config) SolverOptions() simplex.Options {
	return simplex.Options{
		Tolerance:            c.Solver.Tolerance,
		IntegralityTolerance: c.Solver.IntegralityTolerance,
		FeasibilityTolerance: c.Solver.FeasibilityTolerance,
		MaxNodes:             c.Solver.MaxNodes,
		TimeLimit:            c.Solver.TimeLimit,
		RelativeGap:          c.Solver.RelativeGap,
	}
}
