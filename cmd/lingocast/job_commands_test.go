package main

import (
	"testing"
)

func TestSubmitCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout := submitTestJob(t, env, "en", "fr")
	requireContains(t, stdout, "Job job-42 submitted (asset.mp4)")
	requireContains(t, stdout, "Languages: en, fr")
}

func TestSubmitCommandMissingAsset(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"submit", "/nonexistent/asset.mp4", "-l", "en"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing asset")
	}
}

func TestJobsListCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	submitTestJob(t, env, "en")

	stdout, _, err := runCLI(t, []string{"jobs", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, stdout, "job-42")
	requireContains(t, stdout, "asset.mp4")
	requireContains(t, stdout, "uploading")
}

func TestJobsListCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"jobs", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, stdout, "No jobs")
}

func TestJobsShowCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	submitTestJob(t, env, "en", "fr")

	stdout, _, err := runCLI(t, []string{"jobs", "show", "job-42"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, stdout, "job-42")
	requireContains(t, stdout, "Stage")
	requireContains(t, stdout, "Language en")
	requireContains(t, stdout, "Language fr")
}

func TestJobsShowUnknownJob(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"jobs", "show", "ghost"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestLanguagesAddCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	submitTestJob(t, env, "en")

	stdout, _, err := runCLI(t, []string{"languages", "add", "job-42", "de"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("languages add: %v", err)
	}
	requireContains(t, stdout, "Job job-42 languages:")
	requireContains(t, stdout, "de")
	requireContains(t, stdout, "en")
	requireContains(t, stdout, "Stage: uploading")
}

func TestTracksCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	submitTestJob(t, env, "en")

	stdout, _, err := runCLI(t, []string{"tracks", "job-42"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	requireContains(t, stdout, "No caption tracks yet")
}

func TestManifestsListCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	submitTestJob(t, env, "en")

	stdout, _, err := runCLI(t, []string{"manifests", "list", "job-42"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("manifests list: %v", err)
	}
	requireContains(t, stdout, "No manifests discovered yet")
}

func TestManifestsSelectRejectsUnknownProtocol(t *testing.T) {
	env := setupCLITestEnv(t)
	submitTestJob(t, env, "en")

	_, _, err := runCLI(t, []string{"manifests", "select", "job-42", "rtmp"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for unsupported protocol")
	}
}
