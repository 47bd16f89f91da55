package main

import (
	"fmt"

	"github.com/fsdfsfssdf/gryflux/admin"
	"github.com/fsdfsfssdf/gryflux/config"
	"github.com/fsdfsfssdf/gryflux/dag"
	"github.com/fsdfsfssdf/gryflux/validation"
)

// AppConfig is gryfluxd's top-level configuration: the shared service
// fields every service in this codebase carries, plus the dag runtime
// and admin HTTP surface this service is built around.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Dag   dag.RuntimeConfig `yaml:"dag" mapstructure:"dag"`
	Admin admin.Config      `yaml:"admin" mapstructure:"admin"`

	// PipelineMode selects which built-in ProcessorFunc gryfluxd installs.
	PipelineMode string `yaml:"pipeline_mode" mapstructure:"pipeline_mode" validate:"omitempty,oneof=wordcount passthrough"`

	// EnableTelemetry turns on the OTLP tracer/meter providers. Off by
	// default so gryfluxd starts without a collector reachable.
	EnableTelemetry bool `yaml:"enable_telemetry" mapstructure:"enable_telemetry"`
}

// ApplyDefaults fills in every unset field across the embedded service
// config and each domain block.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Dag.ApplyDefaults()
	c.Admin.ApplyDefaults()
	if c.PipelineMode == "" {
		c.PipelineMode = "wordcount"
	}
}

// Validate checks the embedded service config, both domain blocks with
// their own hand-rolled Validate methods, and finally runs
// validator/v10 struct-tag validation over the whole config for fields
// like PipelineMode that don't have a dedicated Validator chain.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Dag.Validate(); err != nil {
		return fmt.Errorf("dag config: %w", err)
	}
	if err := c.Admin.Validate(); err != nil {
		return fmt.Errorf("admin config: %w", err)
	}
	return validation.Validate(c)
}
