// Package playback owns protocol selection and the lifecycle of exactly one
// playback adapter at a time, plus the adapter implementations for the two
// supported delivery families.
package playback

import (
	"context"

	"lingocast/internal/manifest"
)

// Engine is the external player surface an adapter drives. Implementations
// wrap whatever actually renders media; the adapters only coordinate it.
type Engine interface {
	Load(sourceURI string) error
	Unload() error
	ShowCaption(language string) error
	HideCaptions() error
}

// Adapter plays media delivered under one specific streaming protocol. An
// adapter also carries the caption surface for the synchronizer.
type Adapter interface {
	Protocol() manifest.Protocol
	Attach(ctx context.Context) error
	Detach() error
	ShowTrack(language string) error
	HideTracks() error
}

// Factory constructs an adapter for a manifest URI. Factories for one
// protocol are ranked by capability and tried in order; the first success
// wins.
type Factory struct {
	Name string
	New  func(manifestURI string) (Adapter, error)
}

// DefaultFactories returns the capability-ranked factory table for the two
// modeled protocol families: segmented delivery where the client parses the
// playlist and manages buffering itself, and manifest-driven delivery where
// the engine owns bitrate adaptation.
func DefaultFactories(engine Engine) map[manifest.Protocol][]Factory {
	return map[manifest.Protocol][]Factory{
		manifest.ProtocolHLS: {
			{Name: "segmented", New: func(uri string) (Adapter, error) {
				return NewSegmentedAdapter(uri, engine)
			}},
		},
		manifest.ProtocolDASH: {
			{Name: "adaptive", New: func(uri string) (Adapter, error) {
				return NewAdaptiveAdapter(uri, engine)
			}},
		},
	}
}
