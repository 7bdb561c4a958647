package database

import (
	"errors"
	"time"
)

// Config defines the database configuration
type Config struct {
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// DefaultConfig returns default database configuration
func DefaultConfig() *Config {
	return &Config{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		SlowThreshold:   200 * time.Millisecond,
		LogLevel:        "warn",
	}
}

// Validate validates the database configuration
func (c *Config) Validate() error {
	if c.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.MaxIdleConns < 0 {
		return errors.New("max_idle_conns must be greater than or equal to 0")
	}
	if c.MaxOpenConns < 0 {
		return errors.New("max_open_conns must be greater than or equal to 0")
	}
	return nil
}
