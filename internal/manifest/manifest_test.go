package manifest_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"lingocast/internal/backend"
	"lingocast/internal/logging"
	"lingocast/internal/manifest"
)

func TestParseProtocols(t *testing.T) {
	got := manifest.ParseProtocols([]string{"hls", "rtmp", "dash", "hls2"})
	want := []manifest.Protocol{manifest.ProtocolHLS, manifest.ProtocolDASH}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseProtocols = %v, want %v", got, want)
	}
}

func TestSetAppendOnly(t *testing.T) {
	set := manifest.NewSet()
	if !set.Add(manifest.ProtocolHLS, "https://cdn/hls/master.m3u8") {
		t.Fatal("first add should signal the set's first entry")
	}
	if set.Add(manifest.ProtocolDASH, "https://cdn/dash/manifest.mpd") {
		t.Fatal("second protocol is not the first entry")
	}
	if set.Add(manifest.ProtocolHLS, "https://other/master.m3u8") {
		t.Fatal("duplicate add must be ignored")
	}

	uri, ok := set.URI(manifest.ProtocolHLS)
	if !ok || uri != "https://cdn/hls/master.m3u8" {
		t.Fatalf("first write must win, got %q", uri)
	}
	if first, ok := set.First(); !ok || first != manifest.ProtocolHLS {
		t.Fatalf("First = (%q, %v)", first, ok)
	}
	if set.Len() != 2 {
		t.Fatalf("Len = %d", set.Len())
	}

	snap := set.Snapshot()
	if len(snap) != 2 || snap["dash"] != "https://cdn/dash/manifest.mpd" {
		t.Fatalf("Snapshot = %v", snap)
	}
}

// stubDiscovery serves a scripted answer per protocol, optionally failing the
// first few attempts with a given error.
type stubDiscovery struct {
	mu       sync.Mutex
	uris     map[string]string
	failures map[string]int
	failWith error
	attempts map[string]int
}

func (s *stubDiscovery) FetchManifest(_ context.Context, _ string, protocol string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempts == nil {
		s.attempts = make(map[string]int)
	}
	s.attempts[protocol]++
	if s.failures[protocol] > 0 {
		s.failures[protocol]--
		return "", s.failWith
	}
	uri, ok := s.uris[protocol]
	if !ok {
		return "", backend.Wrap(backend.ErrNotFound, "job-1", "ready", "manifest "+protocol, nil)
	}
	return uri, nil
}

func notFound() error {
	return backend.Wrap(backend.ErrNotFound, "job-1", "ready", "manifest", nil)
}

func TestResolveImmediate(t *testing.T) {
	client := &stubDiscovery{uris: map[string]string{
		"hls":  "https://cdn/hls/master.m3u8",
		"dash": "https://cdn/dash/manifest.mpd",
	}}
	r := manifest.NewResolver(client, 3, time.Millisecond, logging.NewNop())
	set := manifest.NewSet()

	var mu sync.Mutex
	var discovered []manifest.Protocol
	err := r.Resolve(context.Background(), "job-1", []manifest.Protocol{manifest.ProtocolHLS, manifest.ProtocolDASH}, set, func(p manifest.Protocol) {
		mu.Lock()
		discovered = append(discovered, p)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if set.Len() != 2 || len(discovered) != 2 {
		t.Fatalf("resolved %d protocols, callbacks %d", set.Len(), len(discovered))
	}
}

func TestResolveRetriesNotFound(t *testing.T) {
	client := &stubDiscovery{
		uris:     map[string]string{"hls": "https://cdn/hls/master.m3u8"},
		failures: map[string]int{"hls": 2},
		failWith: notFound(),
	}
	r := manifest.NewResolver(client, 5, time.Millisecond, logging.NewNop())
	set := manifest.NewSet()

	if err := r.Resolve(context.Background(), "job-1", []manifest.Protocol{manifest.ProtocolHLS}, set, nil); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if client.attempts["hls"] != 3 {
		t.Fatalf("attempts = %d, want 3 (two not-found then success)", client.attempts["hls"])
	}
	if uri, ok := set.URI(manifest.ProtocolHLS); !ok || uri == "" {
		t.Fatal("manifest missing after retries")
	}
}

func TestResolveAbandonsOnHardError(t *testing.T) {
	client := &stubDiscovery{
		uris:     map[string]string{"hls": "https://cdn/hls/master.m3u8"},
		failures: map[string]int{"dash": 99},
		failWith: errors.New("packager exploded"),
	}
	// dash would eventually serve, but a non-retryable error abandons it.
	client.uris["dash"] = "https://cdn/dash/manifest.mpd"

	r := manifest.NewResolver(client, 5, time.Millisecond, logging.NewNop())
	set := manifest.NewSet()
	if err := r.Resolve(context.Background(), "job-1", []manifest.Protocol{manifest.ProtocolHLS, manifest.ProtocolDASH}, set, nil); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if client.attempts["dash"] != 1 {
		t.Fatalf("dash attempts = %d, want 1 (abandoned immediately)", client.attempts["dash"])
	}
	if _, ok := set.URI(manifest.ProtocolDASH); ok {
		t.Fatal("abandoned protocol must not resolve")
	}
	if _, ok := set.URI(manifest.ProtocolHLS); !ok {
		t.Fatal("healthy protocol must still resolve")
	}
}

func TestResolveBudgetExhaustedIsTimeout(t *testing.T) {
	client := &stubDiscovery{}
	r := manifest.NewResolver(client, 3, time.Millisecond, logging.NewNop())
	set := manifest.NewSet()

	err := r.Resolve(context.Background(), "job-1", []manifest.Protocol{manifest.ProtocolHLS}, set, nil)
	if !errors.Is(err, backend.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if client.attempts["hls"] != 3 {
		t.Fatalf("attempts = %d, want the full budget of 3", client.attempts["hls"])
	}
}

func TestResolveNoProtocols(t *testing.T) {
	r := manifest.NewResolver(&stubDiscovery{}, 1, time.Millisecond, logging.NewNop())
	if err := r.Resolve(context.Background(), "job-1", nil, manifest.NewSet(), nil); err == nil {
		t.Fatal("expected error with no protocols configured")
	}
}
