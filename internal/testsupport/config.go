// Package testsupport provides shared helpers for package tests: temp-dir
// configs, store setup, scratch media files, and a scriptable backend fake.
package testsupport

import (
	"path/filepath"
	"testing"

	"lingocast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Paths.Socket = filepath.Join(base, "lingocast.sock")
	cfg.Backend.BaseURL = "http://127.0.0.1:0"
	cfg.Backend.APIKey = "test"
	cfg.Reconciler.PollIntervalSeconds = 1
	cfg.Discovery.IntervalSeconds = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithBackendURL points the backend client at the given base URL.
func WithBackendURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Backend.BaseURL = url
	}
}

// WithProtocols overrides the discovery protocol list.
func WithProtocols(protocols ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Discovery.Protocols = protocols
	}
}

// WithDiscoveryBudget overrides the per-protocol retry budget.
func WithDiscoveryBudget(attempts, intervalSeconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Discovery.Attempts = attempts
		cfg.Discovery.IntervalSeconds = intervalSeconds
	}
}
