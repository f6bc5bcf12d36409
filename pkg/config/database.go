package config

import (
	"fmt"
	"strings"
	"time"
)

// Store drivers selectable with database.driver.
const (
	DriverPgx    = "pgx"
	DriverGorm   = "gorm"
	DriverMemory = "memory"
)

type DatabaseConfig struct {
	URL        string        `koanf:"url"`
	Timeout    time.Duration `koanf:"timeout"`
	Driver     string        `koanf:"driver"`
	Migrations string        `koanf:"migrations"`
}

// String returns a string representation of the database configuration.
func (c *DatabaseConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Database ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	b.WriteString(fmt.Sprintf("  url: %s\n", MaskURL(c.URL)))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  migrations: %s\n", c.Migrations))
	return b.String()
}

func (c *DatabaseConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = DriverPgx
	}
	switch c.Driver {
	case DriverMemory:
		return nil
	case DriverPgx, DriverGorm:
	default:
		return fmt.Errorf("unknown database driver %q, expected one of %s, %s, %s", c.Driver, DriverPgx, DriverGorm, DriverMemory)
	}
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	if !isValidPostgresURL(c.URL) {
		return fmt.Errorf("database URL must start with 'postgres://': %s", MaskURL(c.URL))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database connect timeout is not configured")
	}
	return nil
}

// isValidPostgresURL checks if the provided URL is a valid PostgreSQL URL
func isValidPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://")
}

// MaskURL hides the credentials of a connection URL.
func MaskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return "****"
}
