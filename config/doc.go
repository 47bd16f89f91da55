// Package config provides configuration loading and validation for gryflux
// applications.
//
// It uses Viper to load configuration from files and environment variables,
// supporting multiple formats (YAML, JSON, TOML) and environment-specific
// overrides.
//
// # Usage
//
//	var cfg MyConfig
//	err := config.LoadConfig("my-service", &cfg)
//
// Every environment variable is bound without a prefix: its name is
// lowercased and underscores map to dotted keys (e.g., DATABASE_HOST
// overrides database.host).
package config
