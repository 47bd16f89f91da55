package admin

import (
	"fmt"

	"github.com/fsdfsfssdf/gryflux/util"
)

// Config holds the admin HTTP surface's configuration.
type Config struct {
	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port"`
	StatsPeriod  int    `yaml:"stats_period_ms" mapstructure:"stats_period_ms"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// ApplyDefaults sets sensible defaults for unset fields.
func (c *Config) ApplyDefaults() {
	c.Host = util.Coalesce(c.Host, "0.0.0.0")
	if c.Port == 0 {
		c.Port = 9090
	}
	if c.StatsPeriod == 0 {
		c.StatsPeriod = 1000
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 0 // SSE streams must not be write-deadlined
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("admin.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.StatsPeriod < 0 {
		return fmt.Errorf("admin.stats_period_ms must be non-negative (got: %d)", c.StatsPeriod)
	}
	return nil
}
