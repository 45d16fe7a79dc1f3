// Package container provides dependency injection and lifecycle management
// for the approval engine following Clean Architecture principles.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Exchange rate provider configuration
	Exchange ExchangeConfig

	// OpenAI configuration
	OpenAI OpenAIConfig

	// Server configuration
	Server ServerConfig

	// Escalation sweep configuration
	Escalation EscalationConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// ExchangeConfig holds exchange-rate provider settings.
type ExchangeConfig struct {
	// BaseURL of the rate provider
	BaseURL string

	// Timeout for rate lookups
	Timeout time.Duration
}

// OpenAIConfig holds receipt-extraction API settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key; empty disables receipt extraction
	APIKey string

	// Model is the vision model to use (e.g., "gpt-4o")
	Model string

	// Timeout for API calls
	Timeout time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration
}

// EscalationConfig holds background escalation sweep settings.
type EscalationConfig struct {
	SweepInterval time.Duration
	SweepTimeout  time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/approvals.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Exchange: ExchangeConfig{
			BaseURL: "https://api.exchangerate-api.com/v4/latest",
			Timeout: 10 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Model:   "gpt-4o",
			Timeout: 60 * time.Second,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Escalation: EscalationConfig{
			SweepInterval: 15 * time.Minute,
			SweepTimeout:  2 * time.Minute,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Exchange.BaseURL == "" {
		return fmt.Errorf("exchange.base_url is required")
	}
	if c.Escalation.SweepInterval <= 0 {
		return fmt.Errorf("escalation.sweep_interval must be positive")
	}
	return nil
}
