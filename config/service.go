package config

import (
	"fmt"

	"github.com/kbukum/streamcall/logger"
)

// ServiceConfig is the section shared by every streamcall binary. Embed it
// with `mapstructure:",squash"` so its keys sit at the top level.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string        `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// IsProduction reports whether the service runs in production.
func (c *ServiceConfig) IsProduction() bool { return c.Environment == "production" }

// ApplyDefaults fills the environment and logging section. Development
// turns Debug on; production forces JSON logs.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	switch c.Environment {
	case "development":
		c.Debug = true
	case "production":
		if c.Logging.Format == "" {
			c.Logging.Format = logger.FormatJSON
		}
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate checks struct tags, then the logging section.
func (c *ServiceConfig) Validate() error {
	if err := Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
