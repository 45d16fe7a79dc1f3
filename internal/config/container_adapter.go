package config

import (
	"github.com/expensehub/approval-engine/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Exchange: container.ExchangeConfig{
			BaseURL: c.Exchange.BaseURL,
			Timeout: c.Exchange.Timeout,
		},
		OpenAI: container.OpenAIConfig{
			APIKey:  c.OpenAI.APIKey,
			Model:   c.OpenAI.Model,
			Timeout: c.OpenAI.Timeout,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Escalation: container.EscalationConfig{
			SweepInterval: c.Escalation.SweepInterval,
			SweepTimeout:  c.Escalation.SweepTimeout,
		},
	}
}
