package config

import (
	"fmt"
	"os"
	"time"
)

const EnvAuditRetention = "GAVEL_AUDIT_RETENTION"

// AuditConfig holds the audit trail retention window.
type AuditConfig struct {
	Retention string `toml:"retention"`
}

// RetentionDuration returns Retention as a time.Duration.
func (c *AuditConfig) RetentionDuration() time.Duration {
	d, _ := time.ParseDuration(c.Retention)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AuditConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AuditConfig) Merge(overlay *AuditConfig) {
	if overlay.Retention != "" {
		c.Retention = overlay.Retention
	}
}

func (c *AuditConfig) loadDefaults() {
	if c.Retention == "" {
		// 90 days.
		c.Retention = "2160h"
	}
}

func (c *AuditConfig) loadEnv() {
	if v := os.Getenv(EnvAuditRetention); v != "" {
		c.Retention = v
	}
}

func (c *AuditConfig) validate() error {
	if _, err := time.ParseDuration(c.Retention); err != nil {
		return fmt.Errorf("invalid retention: %w", err)
	}
	return nil
}
