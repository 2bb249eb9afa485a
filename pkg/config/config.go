// Package config loads application configuration from OD_* environment
// variables with sensible defaults for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	// Server
	Host     string
	Port     string
	LogLevel string

	// Store selection: "postgres", "rqlite" or "memory"
	Driver string

	// PostgreSQL
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// rqlite
	RqliteURL string

	// Create schema and seed data on startup
	Bootstrap bool
}

// Load reads configuration from the environment, falling back to
// defaults for anything unset.
func Load() *Config {
	return &Config{
		Host:     getEnv("OD_APP_HOST", ""),
		Port:     getEnv("OD_APP_PORT", "8080"),
		LogLevel: getEnv("OD_LOG_LEVEL", "info"),

		Driver: getEnv("OD_DB_DRIVER", "postgres"),

		DBHost:     getEnv("OD_DB_HOST", "localhost"),
		DBPort:     getEnvInt("OD_DB_PORT", 5432),
		DBName:     getEnv("OD_DB_NAME", "orderdesk"),
		DBUser:     getEnv("OD_DB_USER", "postgres"),
		DBPassword: getEnv("OD_DB_PASSWORD", ""),

		RqliteURL: getEnv("OD_RQLITE_URL", "http://localhost:4001"),

		Bootstrap: getEnvBool("OD_DB_BOOTSTRAP", true),
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "rqlite", "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Driver)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
