package config

import (
	"fmt"
	"strings"
	"time"
)

// DefaultShutdownTimeout is used when shutdown.timeout is not set.
const DefaultShutdownTimeout = 10 * time.Second

// ShutdownConfig bounds the graceful stop of the HTTP, gRPC and pprof servers.
// Each server gets the full timeout; a gRPC server still busy afterwards is stopped hard.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the ShutdownConfig.
func (c *ShutdownConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Shutdown ---\n")
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

// Validate fills in DefaultShutdownTimeout when unset and rejects negative timeouts.
func (c *ShutdownConfig) Validate() error {
	if c.Timeout == 0 {
		c.Timeout = DefaultShutdownTimeout
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %v", c.Timeout)
	}
	return nil
}
