package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"lingocast/internal/backend"
	"lingocast/internal/config"
	"lingocast/internal/logging"
	"lingocast/internal/media"
	"lingocast/internal/testsupport"
)

func newTestClient(t *testing.T, baseURL string) *backend.Client {
	t.Helper()
	cfg := config.Default().Backend
	cfg.BaseURL = baseURL
	cfg.APIKey = "secret-key"
	return backend.NewClient(cfg, logging.NewNop())
}

func TestSubmitAsset(t *testing.T) {
	var gotAuth, gotLanguages, gotFilename string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/assets" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotLanguages = r.FormValue("languages")
		if files := r.MultipartForm.File["asset"]; len(files) == 1 {
			gotFilename = files[0].Filename
			file, err := files[0].Open()
			if err != nil {
				t.Errorf("open part: %v", err)
			} else {
				data, _ := io.ReadAll(file)
				file.Close()
				if len(data) != 2048 {
					t.Errorf("uploaded %d bytes, want 2048", len(data))
				}
			}
		} else {
			t.Error("asset part missing")
		}
		json.NewEncoder(w).Encode(map[string]string{"job_id": "job-42"})
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, path, 2048)
	asset, err := media.Inspect(path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}

	client := newTestClient(t, server.URL)
	jobID, err := client.SubmitAsset(context.Background(), asset, []string{"en", "fr"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if jobID != "job-42" {
		t.Fatalf("job id = %q", jobID)
	}
	if gotAuth != "Bearer secret-key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotLanguages != "en,fr" {
		t.Fatalf("languages field = %q", gotLanguages)
	}
	if gotFilename != "clip.mp4" {
		t.Fatalf("filename = %q", gotFilename)
	}
}

func TestSubmitAssetNoJobID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, path, 64)
	asset, err := media.Inspect(path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}

	client := newTestClient(t, server.URL)
	if _, err := client.SubmitAsset(context.Background(), asset, []string{"en"}); !errors.Is(err, backend.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestPollStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs/job-42/status" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"stage":                "transcribing",
			"percent":              41.5,
			"message":              "transcribing audio",
			"ready_for_next_stage": false,
			"substage_in_progress": true,
			"detected_language":    "ja",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	payload, err := client.PollStatus(context.Background(), "job-42")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if payload.Stage != "transcribing" || payload.Percent != 41.5 {
		t.Fatalf("payload = %+v", payload)
	}
	if !payload.SubStageInProgress || payload.DetectedLanguage != "ja" {
		t.Fatalf("payload = %+v", payload)
	}
	if payload.Failed() {
		t.Fatal("healthy payload flagged failed")
	}
}

func TestRequestStageWorkStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"accepted", http.StatusAccepted, nil},
		{"purged", http.StatusGone, backend.ErrStaleJob},
		{"server error", http.StatusInternalServerError, backend.ErrTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					Languages []string `json:"languages"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode body: %v", err)
				}
				if len(req.Languages) != 1 || req.Languages[0] != "fr" {
					t.Errorf("languages = %v", req.Languages)
				}
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			err := client.RequestStageWork(context.Background(), "job-42", []string{"fr"})
			if tc.want == nil {
				if err != nil {
					t.Fatalf("err = %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFetchTracksDropsUnparseableLanguages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tracks": []map[string]any{
				{"language": "en-US", "original": false, "format_uris": map[string]string{"vtt": "https://cdn/en.vtt"}},
				{"language": "??", "original": false},
				{"language": "JA", "original": true, "format_uris": map[string]string{"vtt": "https://cdn/ja.vtt"}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	tracks, err := client.FetchTracks(context.Background(), "job-42")
	if err != nil {
		t.Fatalf("fetch tracks: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("tracks = %+v, want the unparseable one dropped", tracks)
	}
	if tracks[0].Language != "en" || tracks[1].Language != "ja" {
		t.Fatalf("languages = %q %q", tracks[0].Language, tracks[1].Language)
	}
	if !tracks[1].Original || tracks[1].Label != "Japanese (Original)" {
		t.Fatalf("original track = %+v", tracks[1])
	}
}

func TestFetchManifest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/jobs/job-42/manifests/hls":
			json.NewEncoder(w).Encode(map[string]string{"uri": "https://cdn/hls/master.m3u8"})
		case "/v1/jobs/job-42/manifests/dash":
			http.NotFound(w, r)
		case "/v1/jobs/job-42/manifests/empty":
			json.NewEncoder(w).Encode(map[string]string{"uri": ""})
		default:
			t.Errorf("path = %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	uri, err := client.FetchManifest(ctx, "job-42", "hls")
	if err != nil || uri != "https://cdn/hls/master.m3u8" {
		t.Fatalf("hls = (%q, %v)", uri, err)
	}

	if _, err := client.FetchManifest(ctx, "job-42", "dash"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("404 err = %v, want ErrNotFound", err)
	}
	// An empty URI means not packaged yet; same retryable class.
	if _, err := client.FetchManifest(ctx, "job-42", "empty"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("empty err = %v, want ErrNotFound", err)
	}
}

func TestStatusPayloadFailed(t *testing.T) {
	if !(backend.StatusPayload{Percent: -1}).Failed() {
		t.Error("sentinel percent must flag failure")
	}
	if !(backend.StatusPayload{Stage: "Failed", Percent: 50}).Failed() {
		t.Error("failed stage name must flag failure")
	}
	if (backend.StatusPayload{Stage: "ready", Percent: 0}).Failed() {
		t.Error("zero percent is not a failure")
	}
}
