package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validatePollers(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/lingocast/config.toml"
		}
		return fmt.Errorf("backend.base_url is required. Edit %s (create with 'lingocast config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateIngest() error {
	if len(c.Ingest.AllowedExtensions) == 0 {
		return errors.New("ingest.allowed_extensions must list at least one extension")
	}
	return nil
}

func (c *Config) validatePollers() error {
	if c.Reconciler.PollIntervalSeconds <= 0 {
		return errors.New("reconciler.poll_interval_seconds must be positive")
	}
	if c.Discovery.Attempts <= 0 {
		return errors.New("discovery.attempts must be positive")
	}
	if len(c.Discovery.Protocols) == 0 {
		return errors.New("discovery.protocols must list at least one protocol")
	}
	return nil
}

func (c *Config) validatePlayback() error {
	if c.Playback.PreferredProtocol == "" {
		return nil
	}
	for _, proto := range c.Discovery.Protocols {
		if proto == c.Playback.PreferredProtocol {
			return nil
		}
	}
	return fmt.Errorf("playback.preferred_protocol %q is not in discovery.protocols", c.Playback.PreferredProtocol)
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
