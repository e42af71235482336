package utils

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Log output formats.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Config represents the configuration of the verification boundary and its
// hosts
type Config struct {
	// VKVerification makes the machine bind every segment to the digest of
	// its own verifying key (the VK_VERIFICATION toggle)
	VKVerification bool

	// MachineCacheSize is the number of machines kept per verifier.
	// Zero builds a fresh machine for every call.
	MachineCacheSize int

	// MaxProofBytes limits the size of proof and key inputs, zero disables it
	MaxProofBytes int

	// MaxLogDegree is the largest accepted chip log degree
	MaxLogDegree int

	// Logging
	LogLevel  string // zerolog level name
	LogFormat string // "json" or "console"

	// ListenAddr is the HTTP host address
	ListenAddr string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		VKVerification:   false,
		MachineCacheSize: 0,
		MaxProofBytes:    64 << 20,
		MaxLogDegree:     22,
		LogLevel:         "info",
		LogFormat:        LogFormatConsole,
		ListenAddr:       ":8080",
	}
}

// Validate checks if the configuration is valid and reports every problem
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.MachineCacheSize < 0 {
		result = multierror.Append(result, fmt.Errorf("machine cache size must not be negative, got %d", c.MachineCacheSize))
	}

	if c.MaxProofBytes < 0 {
		result = multierror.Append(result, fmt.Errorf("max proof bytes must not be negative, got %d", c.MaxProofBytes))
	}

	if c.MaxLogDegree <= 0 || c.MaxLogDegree > 32 {
		result = multierror.Append(result, fmt.Errorf("max log degree must be in [1, 32], got %d", c.MaxLogDegree))
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err))
	}

	if c.LogFormat != LogFormatJSON && c.LogFormat != LogFormatConsole {
		result = multierror.Append(result, fmt.Errorf("log format must be '%s' or '%s', got '%s'", LogFormatJSON, LogFormatConsole, c.LogFormat))
	}

	if c.ListenAddr == "" {
		result = multierror.Append(result, fmt.Errorf("listen address must not be empty"))
	}

	return result.ErrorOrNil()
}

// WithVKVerification sets the verifying key verification toggle
func (c *Config) WithVKVerification(enabled bool) *Config {
	c.VKVerification = enabled
	return c
}

// WithMachineCacheSize sets the machine cache size
func (c *Config) WithMachineCacheSize(size int) *Config {
	c.MachineCacheSize = size
	return c
}

// WithMaxProofBytes sets the input size limit
func (c *Config) WithMaxProofBytes(n int) *Config {
	c.MaxProofBytes = n
	return c
}

// WithMaxLogDegree sets the largest accepted chip log degree
func (c *Config) WithMaxLogDegree(n int) *Config {
	c.MaxLogDegree = n
	return c
}

// WithLogLevel sets the log level
func (c *Config) WithLogLevel(level string) *Config {
	c.LogLevel = level
	return c
}

// WithLogFormat sets the log format
func (c *Config) WithLogFormat(format string) *Config {
	c.LogFormat = format
	return c
}

// WithListenAddr sets the HTTP listen address
func (c *Config) WithListenAddr(addr string) *Config {
	c.ListenAddr = addr
	return c
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// EnvVKVerification is the environment toggle for VKVerification.
const EnvVKVerification = "VK_VERIFICATION"

// LoadEnv applies environment overrides read through lookup
func (c *Config) LoadEnv(lookup func(string) (string, bool)) error {
	raw, ok := lookup(EnvVKVerification)
	if !ok || raw == "" {
		return nil
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", EnvVKVerification, raw, err)
	}
	c.VKVerification = enabled
	return nil
}
