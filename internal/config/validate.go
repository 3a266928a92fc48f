package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapjoin/pkg/adapter"
	"github.com/leapstack-labs/leapjoin/pkg/dialect"
)

// Output modes accepted by the output setting.
var outputModes = []string{"auto", "text", "markdown", "json"}

// ValidateTarget checks that the target names a registered adapter with a
// SQL dialect to compose queries in.
func ValidateTarget(t *TargetConfig) error {
	if t == nil || t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	typ := strings.ToLower(t.Type)
	if !adapter.IsRegistered(typ) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	if _, ok := dialect.Get(typ); !ok {
		return fmt.Errorf("no SQL dialect for target type %q (dialects: %s)", t.Type, strings.Join(dialect.List(), ", "))
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	if !contains(outputModes, c.OutputFormat) {
		return fmt.Errorf("invalid output %q (expected one of %s)", c.OutputFormat, strings.Join(outputModes, ", "))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format %q (expected text or json)", c.LogFormat)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
