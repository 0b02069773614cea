package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizeIngest()
	c.normalizeDiscovery()
	c.normalizeLanguages()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("log_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("data_dir: %w", err)
	}
	if c.Paths.Socket, err = expandPath(c.Paths.Socket); err != nil {
		return fmt.Errorf("socket: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeBackend() {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	c.Backend.APIKey = strings.TrimSpace(c.Backend.APIKey)
	if c.Backend.RequestTimeout <= 0 {
		c.Backend.RequestTimeout = defaultRequestTimeout
	}
	if c.Backend.UploadTimeoutMinutes <= 0 {
		c.Backend.UploadTimeoutMinutes = defaultUploadTimeoutMinutes
	}
	if c.Backend.RequestsPerSecond <= 0 {
		c.Backend.RequestsPerSecond = defaultRequestsPerSecond
	}
	if c.Backend.RequestBurst <= 0 {
		c.Backend.RequestBurst = defaultRequestBurst
	}
}

func (c *Config) normalizeIngest() {
	if c.Ingest.MaxAssetMiB <= 0 {
		c.Ingest.MaxAssetMiB = defaultMaxAssetMiB
	}
	normalized := make([]string, 0, len(c.Ingest.AllowedExtensions))
	for _, ext := range c.Ingest.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Ingest.AllowedExtensions = normalized
}

func (c *Config) normalizeDiscovery() {
	if c.Discovery.Attempts <= 0 {
		c.Discovery.Attempts = defaultDiscoveryAttempts
	}
	if c.Discovery.IntervalSeconds <= 0 {
		c.Discovery.IntervalSeconds = defaultDiscoveryInterval
	}
	normalized := make([]string, 0, len(c.Discovery.Protocols))
	seen := make(map[string]struct{}, len(c.Discovery.Protocols))
	for _, proto := range c.Discovery.Protocols {
		proto = strings.ToLower(strings.TrimSpace(proto))
		if proto == "" {
			continue
		}
		if _, dup := seen[proto]; dup {
			continue
		}
		seen[proto] = struct{}{}
		normalized = append(normalized, proto)
	}
	c.Discovery.Protocols = normalized
	c.Playback.PreferredProtocol = strings.ToLower(strings.TrimSpace(c.Playback.PreferredProtocol))
}

func (c *Config) normalizeLanguages() {
	normalized := make([]string, 0, len(c.Languages.DefaultTargets))
	seen := make(map[string]struct{}, len(c.Languages.DefaultTargets))
	for _, code := range c.Languages.DefaultTargets {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		normalized = append(normalized, code)
	}
	c.Languages.DefaultTargets = normalized
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
