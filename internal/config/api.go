package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gavelworks/gavel/pkg/middleware"
	"github.com/gavelworks/gavel/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "GAVEL_CORS_ENABLED",
	Origins:          "GAVEL_CORS_ORIGINS",
	AllowedMethods:   "GAVEL_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "GAVEL_CORS_ALLOWED_HEADERS",
	AllowCredentials: "GAVEL_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "GAVEL_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "GAVEL_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "GAVEL_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

// MaxUploadSizeBytes returns the upload ceiling in bytes, falling back to
// 50MB on a malformed setting.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := parseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("GAVEL_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("GAVEL_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}

var byteUnits = []struct {
	suffix     string
	multiplier int64
}{
	{"GB", 1024 * 1024 * 1024},
	{"MB", 1024 * 1024},
	{"KB", 1024},
	{"B", 1},
}

// parseBytes converts a human-readable size like "50MB" to bytes.
func parseBytes(s string) (int64, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	for _, unit := range byteUnits {
		if !strings.HasSuffix(v, unit.suffix) {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(strings.TrimSuffix(v, unit.suffix)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size %q: %w", s, err)
		}
		return n * unit.multiplier, nil
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n, nil
}
