package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvSchedulerWorkers      = "GAVEL_SCHEDULER_WORKERS"
	EnvSchedulerQueueSize    = "GAVEL_SCHEDULER_QUEUE_SIZE"
	EnvSchedulerDrainTimeout = "GAVEL_SCHEDULER_DRAIN_TIMEOUT"
)

// SchedulerConfig dimensions the run worker pool.
type SchedulerConfig struct {
	Workers      int    `toml:"workers"`
	QueueSize    int    `toml:"queue_size"`
	DrainTimeout string `toml:"drain_timeout"`
}

// DrainTimeoutDuration returns DrainTimeout as a time.Duration.
func (c *SchedulerConfig) DrainTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.DrainTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SchedulerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *SchedulerConfig) Merge(overlay *SchedulerConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.QueueSize != 0 {
		c.QueueSize = overlay.QueueSize
	}
	if overlay.DrainTimeout != "" {
		c.DrainTimeout = overlay.DrainTimeout
	}
}

func (c *SchedulerConfig) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = 5
	}
	if c.QueueSize == 0 {
		c.QueueSize = 64
	}
	if c.DrainTimeout == "" {
		c.DrainTimeout = "30s"
	}
}

func (c *SchedulerConfig) loadEnv() {
	if v := os.Getenv(EnvSchedulerWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvSchedulerQueueSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QueueSize = n
		}
	}
	if v := os.Getenv(EnvSchedulerDrainTimeout); v != "" {
		c.DrainTimeout = v
	}
}

func (c *SchedulerConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("invalid workers: %d", c.Workers)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("invalid queue_size: %d", c.QueueSize)
	}
	if _, err := time.ParseDuration(c.DrainTimeout); err != nil {
		return fmt.Errorf("invalid drain_timeout: %w", err)
	}
	return nil
}
