package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// ConfigFileEnv names the environment variable pointing at an optional
// YAML, TOML or JSON configuration file
const ConfigFileEnv = "MT_CONFIG_FILE"

// Loader handles loading configuration from multiple sources
type Loader struct {
	config *Config
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		config: NewConfig(),
	}
}

// Load loads configuration using the cascading strategy:
// 1. Start with defaults
// 2. Override with the configuration file named by MT_CONFIG_FILE
// 3. Override with environment variables
// 4. Override with command line flags (handled by cobra)
func (l *Loader) Load() (*Config, error) {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := l.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := l.config.LoadFromEnvironment(); err != nil {
		return nil, err
	}

	if err := l.config.Validate(); err != nil {
		return nil, err
	}

	return l.config, nil
}

// LoadFile merges a configuration file into the loader's configuration.
// Keys absent from the file keep their current values.
func (l *Loader) LoadFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return &ConfigError{Field: "config_file", Message: err.Error()}
	}
	if err := v.Unmarshal(l.config); err != nil {
		return &ConfigError{Field: "config_file", Message: err.Error()}
	}
	l.config.Store.Backend = strings.ToLower(l.config.Store.Backend)
	return nil
}

// LoadWithOverrides loads configuration and applies command line overrides
func (l *Loader) LoadWithOverrides(overrides *ConfigOverrides) (*Config, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		l.applyOverrides(config, overrides)
	}

	// Re-validate after applying overrides
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ConfigOverrides holds command line flag overrides
type ConfigOverrides struct {
	// Store overrides
	StoreBackend *string
	StoreDir     *string
	PostgresURL  *string

	// Ledger overrides
	FirstWithdrawalMinimum  *int64
	RepeatWithdrawalMinimum *int64

	// HTTP overrides
	HTTPPort *int

	// Application overrides
	LogLevel *string
	Verbose  *bool
}

// applyOverrides applies command line overrides to the configuration
func (l *Loader) applyOverrides(config *Config, overrides *ConfigOverrides) {
	if overrides.StoreBackend != nil {
		config.Store.Backend = strings.ToLower(*overrides.StoreBackend)
	}
	if overrides.StoreDir != nil {
		config.Store.Dir = *overrides.StoreDir
	}
	if overrides.PostgresURL != nil {
		config.Store.PostgresURL = *overrides.PostgresURL
	}

	if overrides.FirstWithdrawalMinimum != nil {
		config.Ledger.FirstWithdrawalMinimum = *overrides.FirstWithdrawalMinimum
	}
	if overrides.RepeatWithdrawalMinimum != nil {
		config.Ledger.RepeatWithdrawalMinimum = *overrides.RepeatWithdrawalMinimum
	}

	if overrides.HTTPPort != nil {
		config.HTTP.Port = *overrides.HTTPPort
	}

	if overrides.LogLevel != nil {
		config.Application.LogLevel = *overrides.LogLevel
	}
	if overrides.Verbose != nil {
		config.Application.Verbose = *overrides.Verbose
	}
}

// ParseList splits a comma separated list, dropping empty items
func ParseList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ParseIntWithFallback parses an integer string with a fallback value
func ParseIntWithFallback(s string, fallback int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return fallback
}

// ParseInt64WithFallback parses a 64-bit integer string with a fallback value
func ParseInt64WithFallback(s string, fallback int64) int64 {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return fallback
}

// ParseBoolWithFallback parses a boolean string with a fallback value
func ParseBoolWithFallback(s string, fallback bool) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return fallback
}

// ParseUint32WithFallback parses a uint32 string with a fallback value
func ParseUint32WithFallback(s string, base int, fallback uint32) uint32 {
	if u, err := strconv.ParseUint(s, base, 32); err == nil {
		return uint32(u)
	}
	return fallback
}
