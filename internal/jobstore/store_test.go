package jobstore_test

import (
	"context"
	"testing"
	"time"

	"lingocast/internal/job"
	"lingocast/internal/jobstore"
	"lingocast/internal/testsupport"
)

func openStore(t *testing.T) *jobstore.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	j := job.New("job-1", "/media/a.mp4", "a.mp4", []string{"en", "fr"})
	j.Ratchet(job.StageUploading, job.SubFlags{}, 30)
	j.SetMessage("uploading source")
	j.SetDirectPlayURI("https://cdn/direct/a.mp4")
	if applied := j.SetSourceLanguageIfEmpty("ja"); !applied {
		t.Fatal("seed source language")
	}
	j.MarkLanguageComplete("en")

	if err := store.Save(ctx, j); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.GetByID(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded == nil {
		t.Fatal("job not found after save")
	}

	snap := loaded.Snapshot()
	if snap.AssetRef != "/media/a.mp4" || snap.AssetName != "a.mp4" {
		t.Fatalf("asset fields = %q %q", snap.AssetRef, snap.AssetName)
	}
	if snap.Stage != job.StageUploading || snap.DisplayedPercent != 30 {
		t.Fatalf("state = %s/%v", snap.Stage, snap.DisplayedPercent)
	}
	if snap.SourceLanguage != "ja" || snap.DirectPlayURI != "https://cdn/direct/a.mp4" {
		t.Fatalf("fields = %q %q", snap.SourceLanguage, snap.DirectPlayURI)
	}
	if !snap.Languages["en"] || snap.Languages["fr"] {
		t.Fatalf("languages = %v", snap.Languages)
	}
}

func TestSaveUpserts(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	j := job.New("job-1", "/media/a.mp4", "a.mp4", []string{"en"})
	if err := store.Save(ctx, j); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := j.AdvanceStage(job.StageTranscribing); err != nil {
		t.Fatalf("advance: %v", err)
	}
	j.Ratchet(job.StageTranscribing, job.SubFlags{}, 0)
	if err := store.Save(ctx, j); err != nil {
		t.Fatalf("resave: %v", err)
	}

	loaded, err := store.GetByID(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Stage() != job.StageTranscribing || loaded.DisplayedPercent() != 64 {
		t.Fatalf("upsert lost state: %s/%v", loaded.Stage(), loaded.DisplayedPercent())
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("list returned %d jobs, want 1", len(all))
	}
}

func TestGetMissingJob(t *testing.T) {
	store := openStore(t)
	loaded, err := store.GetByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded != nil {
		t.Fatal("missing job should load as nil")
	}
}

func TestListActiveExcludesTerminal(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	live := job.New("job-live", "/media/a.mp4", "a.mp4", []string{"en"})
	done := job.New("job-done", "/media/b.mp4", "b.mp4", []string{"en"})
	for _, stage := range []job.Stage{job.StageTranscribing, job.StagePackaging, job.StageReady} {
		if err := done.AdvanceStage(stage); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	dead := job.New("job-dead", "/media/c.mp4", "c.mp4", []string{"en"})
	dead.Fail("boom")

	for _, j := range []*job.Job{live, done, dead} {
		if err := store.Save(ctx, j); err != nil {
			t.Fatalf("save %s: %v", j.ID(), err)
		}
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID() != "job-live" {
		ids := make([]string, len(active))
		for i, j := range active {
			ids[i] = j.ID()
		}
		t.Fatalf("active = %v, want [job-live]", ids)
	}
}

func TestListOrdersByRecency(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	older := job.Restore("job-old", "/media/a.mp4", "a.mp4", "", job.StageUploading, 12,
		"", "", "", map[string]bool{"en": false},
		time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	newer := job.Restore("job-new", "/media/b.mp4", "b.mp4", "", job.StageUploading, 12,
		"", "", "", map[string]bool{"en": false},
		time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC))
	for _, j := range []*job.Job{older, newer} {
		if err := store.Save(ctx, j); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID() != "job-new" {
		t.Fatalf("list order wrong, first = %s", all[0].ID())
	}
}

func TestManifestsRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	j := job.New("job-1", "/media/a.mp4", "a.mp4", []string{"en"})
	if err := store.Save(ctx, j); err != nil {
		t.Fatalf("save: %v", err)
	}

	manifests := map[string]string{
		"hls":  "https://cdn/hls/master.m3u8",
		"dash": "https://cdn/dash/manifest.mpd",
	}
	if err := store.SetManifests(ctx, "job-1", manifests); err != nil {
		t.Fatalf("set manifests: %v", err)
	}

	loaded, err := store.GetManifests(ctx, "job-1")
	if err != nil {
		t.Fatalf("get manifests: %v", err)
	}
	if len(loaded) != 2 || loaded["hls"] != manifests["hls"] {
		t.Fatalf("manifests = %v", loaded)
	}

	if err := store.SetManifests(ctx, "absent", manifests); err == nil {
		t.Fatal("set manifests for a missing job must fail")
	}
}

func TestDelete(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	j := job.New("job-1", "/media/a.mp4", "a.mp4", []string{"en"})
	if err := store.Save(ctx, j); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "job-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	loaded, err := store.GetByID(ctx, "job-1")
	if err != nil || loaded != nil {
		t.Fatalf("job survived delete: %v %v", loaded, err)
	}
}
