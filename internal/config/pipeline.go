package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvPipelineStepTimeout  = "GAVEL_PIPELINE_DEFAULT_STEP_TIMEOUT"
	EnvPipelineRetryBackoff = "GAVEL_PIPELINE_DEFAULT_RETRY_BACKOFF"
)

// PipelineConfig holds the runner's timing defaults.
type PipelineConfig struct {
	DefaultStepTimeout  string `toml:"default_step_timeout"`
	DefaultRetryBackoff string `toml:"default_retry_backoff"`
}

// StepTimeoutDuration returns DefaultStepTimeout as a time.Duration.
func (c *PipelineConfig) StepTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.DefaultStepTimeout)
	return d
}

// RetryBackoffDuration returns DefaultRetryBackoff as a time.Duration.
func (c *PipelineConfig) RetryBackoffDuration() time.Duration {
	d, _ := time.ParseDuration(c.DefaultRetryBackoff)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.DefaultStepTimeout != "" {
		c.DefaultStepTimeout = overlay.DefaultStepTimeout
	}
	if overlay.DefaultRetryBackoff != "" {
		c.DefaultRetryBackoff = overlay.DefaultRetryBackoff
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.DefaultStepTimeout == "" {
		c.DefaultStepTimeout = "2m"
	}
	if c.DefaultRetryBackoff == "" {
		c.DefaultRetryBackoff = "1s"
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineStepTimeout); v != "" {
		c.DefaultStepTimeout = v
	}
	if v := os.Getenv(EnvPipelineRetryBackoff); v != "" {
		c.DefaultRetryBackoff = v
	}
}

func (c *PipelineConfig) validate() error {
	if _, err := time.ParseDuration(c.DefaultStepTimeout); err != nil {
		return fmt.Errorf("invalid default_step_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.DefaultRetryBackoff); err != nil {
		return fmt.Errorf("invalid default_retry_backoff: %w", err)
	}
	return nil
}
