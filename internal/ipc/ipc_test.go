package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"lingocast/internal/backend"
	"lingocast/internal/daemon"
	"lingocast/internal/ipc"
	"lingocast/internal/logging"
	"lingocast/internal/testsupport"
)

func startDaemon(t *testing.T) (*daemon.Daemon, *ipc.Client) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
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

	server, err := ipc.NewServer(ctx, cfg.Paths.Socket, d, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") ||
			strings.Contains(err.Error(), "permission denied") {
			t.Skipf("unix sockets unavailable: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(cfg.Paths.Socket)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return d, client
}

func TestStatusRoundTrip(t *testing.T) {
	_, client := startDaemon(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Running || status.PID <= 0 {
		t.Fatalf("status = %+v", status)
	}
	if status.JobDBPath == "" || status.SocketPath == "" {
		t.Fatalf("paths missing in status: %+v", status)
	}
	if status.ActiveJobs != 0 {
		t.Fatalf("active jobs = %d, want 0", status.ActiveJobs)
	}
}

func TestSubmitAndQueryJobs(t *testing.T) {
	_, client := startDaemon(t)

	assetPath := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, assetPath, 2048)

	submitted, err := client.Submit(assetPath, []string{"en", "fr"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Job.ID != "job-42" || submitted.Job.Stage != "uploading" {
		t.Fatalf("submitted = %+v", submitted.Job)
	}
	if len(submitted.Job.Languages) != 2 {
		t.Fatalf("languages = %+v", submitted.Job.Languages)
	}

	list, err := client.JobList()
	if err != nil {
		t.Fatalf("job list: %v", err)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].ID != "job-42" {
		t.Fatalf("list = %+v", list.Jobs)
	}

	described, err := client.JobDescribe("job-42")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if described.Job.AssetName != "clip.mp4" {
		t.Fatalf("described = %+v", described.Job)
	}

	if _, err := client.JobDescribe("ghost"); err == nil {
		t.Fatal("describe of unknown job must fail")
	}

	tracks, err := client.Tracks("job-42")
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	if len(tracks.Tracks) != 0 {
		t.Fatalf("tracks = %+v before any generation", tracks.Tracks)
	}

	manifests, err := client.Manifests("job-42")
	if err != nil {
		t.Fatalf("manifests: %v", err)
	}
	if len(manifests.Manifests) != 0 {
		t.Fatalf("manifests = %+v before packaging", manifests.Manifests)
	}
}

func TestAddLanguagesOverIPC(t *testing.T) {
	_, client := startDaemon(t)

	assetPath := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, assetPath, 1024)
	if _, err := client.Submit(assetPath, []string{"en"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	resp, err := client.AddLanguages("job-42", []string{"de"})
	if err != nil {
		t.Fatalf("add languages: %v", err)
	}
	if len(resp.Job.Languages) != 2 {
		t.Fatalf("languages = %+v", resp.Job.Languages)
	}

	if _, err := client.AddLanguages("ghost", []string{"de"}); err == nil {
		t.Fatal("add languages on unknown job must fail")
	}
}

func TestSelectProtocolValidation(t *testing.T) {
	_, client := startDaemon(t)

	assetPath := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, assetPath, 1024)
	if _, err := client.Submit(assetPath, []string{"en"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := client.SelectProtocol("job-42", "rtmp"); err == nil {
		t.Fatal("unknown protocol must be rejected")
	}
	// Known protocol without a discovered manifest fails at the selector.
	if _, err := client.SelectProtocol("job-42", "hls"); err == nil {
		t.Fatal("selection before discovery must fail")
	}
}

func TestStopOverIPC(t *testing.T) {
	d, client := startDaemon(t)

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("stop response not acknowledged")
	}
	if d.Status(context.Background()).Running {
		t.Fatal("daemon still reports running after stop")
	}
}
