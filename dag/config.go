package dag

import (
	"time"

	"github.com/fsdfsfssdf/gryflux/validation"
)

// RuntimeConfig configures a StreamingPipeline. It is a leaf component
// config meant to be embedded under a `dag:` block of a larger
// application config, the way logger.Config sits under `logging:`.
type RuntimeConfig struct {
	WorkerPoolSize     int           `yaml:"worker_pool_size" mapstructure:"worker_pool_size"`
	QueueMaxSize       int           `yaml:"queue_max_size" mapstructure:"queue_max_size"`
	OutputPollInterval time.Duration `yaml:"output_poll_interval" mapstructure:"output_poll_interval"`
	BackoffInterval    time.Duration `yaml:"backoff_interval" mapstructure:"backoff_interval"`
	EnableProfiling    bool          `yaml:"enable_profiling" mapstructure:"enable_profiling"`
	TerminalNodeID     string        `yaml:"terminal_node_id" mapstructure:"terminal_node_id"`
}

// DefaultRuntimeConfig returns a config with every field at its default.
func DefaultRuntimeConfig() RuntimeConfig {
	c := RuntimeConfig{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills in zero-valued fields. WorkerPoolSize is left at 0
// here — NewWorkerPool resolves 0 to runtime.NumCPU() at construction
// time, matching the "0 means hardware concurrency" convention.
func (c *RuntimeConfig) ApplyDefaults() {
	if c.QueueMaxSize <= 0 {
		c.QueueMaxSize = 100
	}
	if c.OutputPollInterval <= 0 {
		c.OutputPollInterval = 5 * time.Millisecond
	}
	if c.BackoffInterval <= 0 {
		c.BackoffInterval = 10 * time.Millisecond
	}
	if c.TerminalNodeID == "" {
		c.TerminalNodeID = "output"
	}
}

// Validate checks field ranges, returning an *errors.AppError describing
// every violation found.
func (c *RuntimeConfig) Validate() error {
	v := validation.New()
	v.Min("worker_pool_size", c.WorkerPoolSize, 0)
	v.Min("queue_max_size", c.QueueMaxSize, 1)
	v.Custom(c.OutputPollInterval > 0, "output_poll_interval", "must be positive")
	v.Custom(c.BackoffInterval > 0, "backoff_interval", "must be positive")
	v.Required("terminal_node_id", c.TerminalNodeID)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
