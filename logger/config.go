package logger

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"
)

// Config contains logging configuration.
type Config struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
	// ServiceName tags console output; set from the service config when empty.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// Components overrides the level per component, e.g. {"stream": "debug"}.
	Components map[string]string `yaml:"components" mapstructure:"components"`
}

var formats = []string{FormatJSON, FormatConsole, FormatPretty}

// ApplyDefaults fills in level, format and output.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = zerolog.LevelInfoValue
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
	c.Timestamp = true
}

// Validate checks the level names and the format.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if !slices.Contains(formats, c.Format) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", formats, c.Format)
	}
	for name, lvl := range c.Components {
		if _, err := parseLevel(lvl); err != nil {
			return fmt.Errorf("logging.components.%s: %w", name, err)
		}
	}
	return nil
}

// parseLevel accepts zerolog level names only; an empty string is an error.
func parseLevel(s string) (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" || lvl == zerolog.NoLevel {
		return zerolog.NoLevel, fmt.Errorf("unknown level %q", s)
	}
	return lvl, nil
}
