// Package config loads layered runtime configuration: built-in
// defaults, an optional YAML config file, NBRUN_* environment
// variables, and per-call runtime overrides, in increasing precedence.
package config

import (
	"time"

	"github.com/3leaps/nbrun/pkg/execution"
)

// Config is the resolved runtime configuration.
type Config struct {
	// Server configures the HTTP API.
	Server ServerConfig `mapstructure:"server"`

	// Logging configures the process loggers.
	Logging LoggingConfig `mapstructure:"logging"`

	// Execution configures the job builder's convention defaults.
	Execution ExecutionConfig `mapstructure:"execution"`

	// Sweep configures glob-driven batch submission.
	Sweep SweepConfig `mapstructure:"sweep"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures log level and output profile.
type LoggingConfig struct {
	// Level is a zap level name (debug, info, warn, error).
	Level string `mapstructure:"level"`

	// Profile is CONSOLE or STRUCTURED.
	Profile string `mapstructure:"profile"`
}

// ExecutionConfig overrides the builder's convention-based defaults.
// Zero values fall back to the built-in conventions.
type ExecutionConfig struct {
	// Image is the default container image name.
	Image string `mapstructure:"image"`

	// RoleBase is the default execution role base name.
	RoleBase string `mapstructure:"role_base"`

	// InstanceType is the default compute instance type.
	InstanceType string `mapstructure:"instance_type"`

	// VolumeSizeGB is the job volume size.
	VolumeSizeGB int `mapstructure:"volume_size_gb"`

	// MaxRuntimeSeconds caps job runtime.
	MaxRuntimeSeconds int `mapstructure:"max_runtime_seconds"`
}

// SweepConfig configures batch submission.
type SweepConfig struct {
	// RateLimit is the maximum submissions per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// ExecutionDefaults converts the execution section into builder defaults.
func (c *Config) ExecutionDefaults() execution.Defaults {
	return execution.Defaults{
		Image:             c.Execution.Image,
		RoleBase:          c.Execution.RoleBase,
		InstanceType:      c.Execution.InstanceType,
		VolumeSizeGB:      c.Execution.VolumeSizeGB,
		MaxRuntimeSeconds: c.Execution.MaxRuntimeSeconds,
	}
}
