// Package config loads and validates the application configuration.
//
// Values come from built-in defaults, an optional YAML file, SCRY_*
// environment variables and command-line flags, each layer overriding the
// one before it.
package config
