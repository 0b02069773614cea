package playback

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"lingocast/internal/manifest"
)

// adaptiveAdapter implements manifest-driven delivery: the manifest URI goes
// straight to the engine, which owns bitrate adaptation and buffering.
type adaptiveAdapter struct {
	manifestURI string
	engine      Engine

	mu       sync.Mutex
	attached bool
	showing  string
}

// NewAdaptiveAdapter builds the manifest-based adaptive adapter.
func NewAdaptiveAdapter(manifestURI string, engine Engine) (Adapter, error) {
	if strings.TrimSpace(manifestURI) == "" {
		return nil, fmt.Errorf("adaptive adapter: manifest URI required")
	}
	if engine == nil {
		return nil, fmt.Errorf("adaptive adapter: engine required")
	}
	return &adaptiveAdapter{manifestURI: manifestURI, engine: engine}, nil
}

func (a *adaptiveAdapter) Protocol() manifest.Protocol { return manifest.ProtocolDASH }

func (a *adaptiveAdapter) Attach(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.engine.Load(a.manifestURI); err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	a.mu.Lock()
	a.attached = true
	a.mu.Unlock()
	return nil
}

func (a *adaptiveAdapter) Detach() error {
	a.mu.Lock()
	a.attached = false
	a.showing = ""
	a.mu.Unlock()
	return a.engine.Unload()
}

func (a *adaptiveAdapter) ShowTrack(language string) error {
	a.mu.Lock()
	a.showing = language
	a.mu.Unlock()
	return a.engine.ShowCaption(language)
}

func (a *adaptiveAdapter) HideTracks() error {
	a.mu.Lock()
	a.showing = ""
	a.mu.Unlock()
	return a.engine.HideCaptions()
}
