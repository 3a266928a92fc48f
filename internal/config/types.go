// Package config loads leapjoin configuration.
//
// Values are layered, lowest precedence first: built-in defaults,
// leapjoin.yaml, LEAPJOIN_* environment variables, explicitly set flags.
package config

import "github.com/leapstack-labs/leapjoin/pkg/core"

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// ServerConfig holds configuration for the HTTP paging server.
type ServerConfig struct {
	Port int `koanf:"port"`
}

// Config holds all CLI configuration options.
type Config struct {
	Target       *TargetConfig `koanf:"target"`
	LogLevel     string        `koanf:"log_level"`
	LogFormat    string        `koanf:"log_format"`
	OutputFormat string        `koanf:"output"`
	PageSize     int           `koanf:"page_size"`
	Verbose      bool          `koanf:"verbose"`
	Server       ServerConfig  `koanf:"server"`
}

// Config file names, searched in this order.
const (
	ConfigFileName    = "leapjoin.yaml"
	ConfigFileNameAlt = "leapjoin.yml"
)

// Default configuration values.
const (
	DefaultTargetType = "sqlite"
	DefaultDatabase   = ":memory:"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultOutput     = "auto" // TTY=text, non-TTY=markdown
	DefaultPageSize   = 20
	DefaultServerPort = 8765
)

// DefaultPostgresPort is applied to postgres targets without a port.
const DefaultPostgresPort = 5432

// EnvPrefix is the prefix of environment variables read into the config.
const EnvPrefix = "LEAPJOIN_"

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Target: &TargetConfig{
			Type:     DefaultTargetType,
			Database: DefaultDatabase,
		},
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		OutputFormat: DefaultOutput,
		PageSize:     DefaultPageSize,
		Server:       ServerConfig{Port: DefaultServerPort},
	}
}
