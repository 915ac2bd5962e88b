// Package config loads service configuration from a YAML file, a .env file
// and prefixed environment variables into a caller-supplied struct.
//
//	type Config struct {
//	    config.ServiceConfig `mapstructure:",squash"`
//	    Client httpclient.Config `mapstructure:"client"`
//	}
//
//	var cfg Config
//	if err := config.LoadConfig("streamcall", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := config.Validate(&cfg); err != nil { ... }
package config
