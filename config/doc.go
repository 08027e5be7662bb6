// Package config handles application configuration loading and validation.
//
// Configuration is read from a YAML file (config.yml by default), laid over
// built-in defaults and validated using struct tags. Durations are written
// as Go duration strings ("5s", "68ms").
package config
