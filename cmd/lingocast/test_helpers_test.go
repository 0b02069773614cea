package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lingocast/internal/backend"
	"lingocast/internal/config"
	"lingocast/internal/daemon"
	"lingocast/internal/ipc"
	"lingocast/internal/logging"
	"lingocast/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	fake       *testsupport.FakeBackend
	socketPath string
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)

	configPath := filepath.Join(homeDir, ".config", "lingocast", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)

	fake := testsupport.NewFakeBackend("job-42")
	fake.Statuses = []backend.StatusPayload{
		{Stage: "uploading", Percent: 20, Message: "uploading source"},
	}

	d, err := daemon.New(cfg, store, fake, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon start: %v", err)
	}
	t.Cleanup(d.Stop)

	srv, err := ipc.NewServer(ctx, cfg.Paths.Socket, d, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") ||
			strings.Contains(err.Error(), "permission denied") {
			t.Skipf("unix sockets unavailable: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	return &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		fake:       fake,
		socketPath: cfg.Paths.Socket,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nlog_dir = %q\ndata_dir = %q\napi_bind = %q\nsocket = %q\n\n"+
			"[backend]\nbase_url = %q\napi_key = %q\n\n"+
			"[reconciler]\npoll_interval_seconds = %d\n\n"+
			"[discovery]\ninterval_seconds = %d\n",
		cfg.Paths.LogDir,
		cfg.Paths.DataDir,
		cfg.Paths.APIBind,
		cfg.Paths.Socket,
		cfg.Backend.BaseURL,
		cfg.Backend.APIKey,
		cfg.Reconciler.PollIntervalSeconds,
		cfg.Discovery.IntervalSeconds,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func submitTestJob(t *testing.T, env *cliTestEnv, languages ...string) string {
	t.Helper()
	assetPath := filepath.Join(env.baseDir, "asset.mp4")
	testsupport.WriteFile(t, assetPath, 2048)
	args := []string{"submit", assetPath}
	for _, code := range languages {
		args = append(args, "--language", code)
	}
	stdout, _, err := runCLI(t, args, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return stdout
}
