// Package config loads, normalizes, and validates the TOML configuration
// that drives the backend client, pollers, and playback coordinator.
package config
