package postgres

import (
	"fmt"
	"strings"
	"time"
)

// Default configuration values
const (
	DefaultHost            = "localhost"
	DefaultPort            = 5432
	DefaultSSLMode         = "disable"
	DefaultConnectTimeout  = 10 * time.Second
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 5 * time.Minute
	DefaultConnMaxIdleTime = 10 * time.Minute
	DefaultApplicationName = "orderdesk"
)

// Config holds the configuration for the PostgreSQL connection.
type Config struct {
	Host     string // Database host (default: "localhost")
	Port     int    // Database port (default: 5432)
	User     string // Database user (required)
	Password string // Database password (required)
	DBName   string // Database name (required)
	SSLMode  string // SSL mode: "disable", "require", "verify-ca", "verify-full" (default: "disable")

	// Connection pooling
	MaxOpenConns    int           // Maximum number of open connections (default: 25)
	MaxIdleConns    int           // Maximum number of idle connections (default: 5)
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection (default: 5 minutes)
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection (default: 10 minutes)

	ConnectTimeout  time.Duration // Connection timeout (default: 10 seconds)
	ApplicationName string        // Application name for logging (default: "orderdesk")
}

// NewDefaultConfig creates a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		SSLMode:         DefaultSSLMode,
		MaxOpenConns:    DefaultMaxOpenConns,
		MaxIdleConns:    DefaultMaxIdleConns,
		ConnMaxLifetime: DefaultConnMaxLifetime,
		ConnMaxIdleTime: DefaultConnMaxIdleTime,
		ConnectTimeout:  DefaultConnectTimeout,
		ApplicationName: DefaultApplicationName,
	}
}

// NewConfig creates a Config with the specified database credentials and
// applies default values for other settings.
func NewConfig(host string, port int, user, password, dbName string) *Config {
	config := NewDefaultConfig()
	config.Host = host
	config.Port = port
	config.User = user
	config.Password = password
	config.DBName = dbName
	return config
}

// Validate checks the configuration and fills defaults for any unset
// optional fields.
func (c *Config) Validate() error {
	if c.User == "" {
		return fmt.Errorf("%w: user is required", ErrInvalidConfig)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: database name is required", ErrInvalidConfig)
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port <= 0 || c.Port > 65535 {
		c.Port = DefaultPort
	}
	if c.SSLMode == "" {
		c.SSLMode = DefaultSSLMode
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = DefaultConnMaxIdleTime
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ApplicationName == "" {
		c.ApplicationName = DefaultApplicationName
	}
	return nil
}

// DSN builds a key=value connection string for lib/pq.
func (c *Config) DSN() string {
	params := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%d", c.Port),
		fmt.Sprintf("user=%s", c.User),
		fmt.Sprintf("dbname=%s", c.DBName),
		fmt.Sprintf("sslmode=%s", c.SSLMode),
		fmt.Sprintf("connect_timeout=%d", int(c.ConnectTimeout.Seconds())),
		fmt.Sprintf("application_name=%s", c.ApplicationName),
	}
	if c.Password != "" {
		params = append(params, fmt.Sprintf("password=%s", c.Password))
	}
	return strings.Join(params, " ")
}

// WithSSLMode sets the SSL mode and returns the config for chaining.
func (c *Config) WithSSLMode(mode string) *Config {
	c.SSLMode = mode
	return c
}

// WithPool sets the connection pool limits and returns the config for chaining.
func (c *Config) WithPool(maxOpen, maxIdle int) *Config {
	c.MaxOpenConns = maxOpen
	c.MaxIdleConns = maxIdle
	return c
}

// WithApplicationName sets the application name and returns the config for chaining.
func (c *Config) WithApplicationName(name string) *Config {
	c.ApplicationName = name
	return c
}
