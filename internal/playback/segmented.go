package playback

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"lingocast/internal/manifest"
)

// segmentedAdapter implements client-driven segmented delivery: it fetches
// the segment playlist itself, resolves segment URIs, and tracks the buffer
// window, leaving the engine a plain sequential source. Used where the
// engine has no native adaptive support.
type segmentedAdapter struct {
	manifestURI string
	engine      Engine
	fetch       func(ctx context.Context, uri string) ([]byte, error)
	bufferAhead int

	mu       sync.Mutex
	segments []string
	position int
	attached bool
	showing  string
}

// NewSegmentedAdapter builds the segmented-delivery adapter.
func NewSegmentedAdapter(manifestURI string, engine Engine) (Adapter, error) {
	if strings.TrimSpace(manifestURI) == "" {
		return nil, fmt.Errorf("segmented adapter: manifest URI required")
	}
	if engine == nil {
		return nil, fmt.Errorf("segmented adapter: engine required")
	}
	return &segmentedAdapter{
		manifestURI: manifestURI,
		engine:      engine,
		fetch:       fetchHTTP,
		bufferAhead: 3,
	}, nil
}

func (a *segmentedAdapter) Protocol() manifest.Protocol { return manifest.ProtocolHLS }

// Attach fetches and parses the playlist, then hands the engine the first
// buffered segment window.
func (a *segmentedAdapter) Attach(ctx context.Context) error {
	body, err := a.fetch(ctx, a.manifestURI)
	if err != nil {
		return fmt.Errorf("fetch playlist: %w", err)
	}
	segments, err := parseSegmentPlaylist(a.manifestURI, string(body))
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.segments = segments
	a.position = 0
	a.mu.Unlock()

	if err := a.engine.Load(segments[0]); err != nil {
		return fmt.Errorf("load first segment: %w", err)
	}

	a.mu.Lock()
	a.attached = true
	a.mu.Unlock()
	return nil
}

// Detach releases the buffer bookkeeping and unloads the engine.
func (a *segmentedAdapter) Detach() error {
	a.mu.Lock()
	a.segments = nil
	a.position = 0
	a.attached = false
	a.showing = ""
	a.mu.Unlock()
	return a.engine.Unload()
}

func (a *segmentedAdapter) ShowTrack(language string) error {
	a.mu.Lock()
	a.showing = language
	a.mu.Unlock()
	return a.engine.ShowCaption(language)
}

func (a *segmentedAdapter) HideTracks() error {
	a.mu.Lock()
	a.showing = ""
	a.mu.Unlock()
	return a.engine.HideCaptions()
}

// Buffered returns the segment URIs inside the current buffer window.
func (a *segmentedAdapter) Buffered() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.attached || len(a.segments) == 0 {
		return nil
	}
	end := a.position + a.bufferAhead
	if end > len(a.segments) {
		end = len(a.segments)
	}
	return append([]string(nil), a.segments[a.position:end]...)
}

// Advance moves the playback position one segment forward and feeds the
// engine the next buffered segment, if any.
func (a *segmentedAdapter) Advance() error {
	a.mu.Lock()
	if !a.attached {
		a.mu.Unlock()
		return fmt.Errorf("segmented adapter: not attached")
	}
	if a.position+1 >= len(a.segments) {
		a.mu.Unlock()
		return io.EOF
	}
	a.position++
	next := a.segments[a.position]
	a.mu.Unlock()
	return a.engine.Load(next)
}

// parseSegmentPlaylist extracts segment URIs from an extended M3U playlist,
// resolving relative entries against the playlist URI.
func parseSegmentPlaylist(baseURI, body string) ([]string, error) {
	lines := strings.Split(body, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "#EXTM3U" {
		return nil, fmt.Errorf("parse playlist: missing #EXTM3U header")
	}

	base, err := url.Parse(baseURI)
	if err != nil {
		return nil, fmt.Errorf("parse playlist base: %w", err)
	}

	var segments []string
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ref, err := url.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("parse segment uri %q: %w", line, err)
		}
		segments = append(segments, base.ResolveReference(ref).String())
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("parse playlist: no segments")
	}
	return segments, nil
}

func fetchHTTP(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", uri, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}
