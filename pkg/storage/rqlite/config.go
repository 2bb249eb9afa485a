package rqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/medatechnology/goutil/medaerror"
)

// Default configuration values
const (
	DefaultURL         = "http://localhost:4001"
	DefaultConsistency = "weak"
	DefaultTimeout     = 10 * time.Second
)

var (
	ErrInvalidConfig medaerror.MedaError = medaerror.MedaError{Message: "invalid rqlite configuration"}
	ErrNotConnected  medaerror.MedaError = medaerror.MedaError{Message: "rqlite database is not connected"}
)

// Config holds the configuration for the rqlite connection.
type Config struct {
	URL         string        // Node URL, e.g. "http://localhost:4001" (default: DefaultURL)
	Consistency string        // Read consistency: "none", "weak", "strong" (default: "weak")
	Timeout     time.Duration // Request timeout (default: 10 seconds)
}

// NewDefaultConfig creates a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		URL:         DefaultURL,
		Consistency: DefaultConsistency,
		Timeout:     DefaultTimeout,
	}
}

// Validate checks the configuration and fills defaults for unset fields.
func (c *Config) Validate() error {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("%w: URL must start with http:// or https://", ErrInvalidConfig)
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Consistency == "" {
		c.Consistency = DefaultConsistency
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}
