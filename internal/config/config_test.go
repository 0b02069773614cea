package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lingocast/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.Default()
	if cfg.Reconciler.PollIntervalSeconds != 2 {
		t.Errorf("poll interval = %d", cfg.Reconciler.PollIntervalSeconds)
	}
	if cfg.Discovery.Attempts != 8 || cfg.Discovery.IntervalSeconds != 2 {
		t.Errorf("discovery budget = %d x %ds", cfg.Discovery.Attempts, cfg.Discovery.IntervalSeconds)
	}
	if len(cfg.Discovery.Protocols) != 2 {
		t.Errorf("protocols = %v", cfg.Discovery.Protocols)
	}
	if !cfg.Playback.CaptionsEnabled {
		t.Error("captions default on")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Errorf("logging defaults = %s/%s", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestLoadParsesAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
log_dir = "` + filepath.Join(dir, "logs") + `"
data_dir = "` + filepath.Join(dir, "data") + `"

[backend]
base_url = "https://api.example.com"
api_key = "secret"

[languages]
default_targets = ["en", "de"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = (%q, %v)", resolved, exists)
	}
	if cfg.Backend.BaseURL != "https://api.example.com" {
		t.Fatalf("base url = %q", cfg.Backend.BaseURL)
	}
	if len(cfg.Languages.DefaultTargets) != 2 {
		t.Fatalf("targets = %v", cfg.Languages.DefaultTargets)
	}
	// Untouched sections keep their defaults.
	if cfg.Reconciler.PollIntervalSeconds != 2 {
		t.Fatalf("poll interval = %d", cfg.Reconciler.PollIntervalSeconds)
	}
}

func TestLoadMissingFileRequiresBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "backend.base_url") {
		t.Fatalf("err = %v, want base_url requirement", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"missing base url", func(c *config.Config) { c.Backend.BaseURL = "" }, "backend.base_url"},
		{"no extensions", func(c *config.Config) { c.Ingest.AllowedExtensions = nil }, "allowed_extensions"},
		{"bad poll interval", func(c *config.Config) { c.Reconciler.PollIntervalSeconds = 0 }, "poll_interval_seconds"},
		{"no protocols", func(c *config.Config) { c.Discovery.Protocols = nil }, "discovery.protocols"},
		{"unknown preferred protocol", func(c *config.Config) { c.Playback.PreferredProtocol = "rtmp" }, "preferred_protocol"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Backend.BaseURL = "https://api.example.com"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	written, err := config.WriteSample(path)
	if err != nil {
		t.Fatalf("write sample: %v", err)
	}
	data, err := os.ReadFile(written)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[backend]") {
		t.Fatal("sample missing backend section")
	}

	if _, err := config.WriteSample(path); err == nil {
		t.Fatal("second write must refuse to overwrite")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got, err := config.ExpandPath("~/lingocast")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != filepath.Join(home, "lingocast") {
		t.Fatalf("expanded = %q", got)
	}

	got, err = config.ExpandPath("")
	if err != nil || got != "" {
		t.Fatalf("empty path = (%q, %v)", got, err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for _, d := range []string{cfg.Paths.LogDir, cfg.Paths.DataDir} {
		if _, err := os.Stat(d); err != nil {
			t.Fatalf("directory %s missing: %v", d, err)
		}
	}
}
