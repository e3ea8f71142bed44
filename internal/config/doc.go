// Package config loads, normalizes, and validates devd's TOML configuration.
package config
