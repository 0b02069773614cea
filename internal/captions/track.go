// Package captions models subtitle tracks and keeps track selection
// consistent with the active playback adapter.
package captions

import "lingocast/internal/lang"

// Track is one language's caption stream for a job. Tracks are immutable:
// regeneration produces a new Track value rather than mutating an existing
// one, so in-flight consumers never observe a half-updated track.
type Track struct {
	Language   string
	Label      string
	Original   bool
	FormatURIs map[string]string
}

// NewTrack builds a track with a display label derived from the language code.
func NewTrack(language string, original bool, formatURIs map[string]string) Track {
	uris := make(map[string]string, len(formatURIs))
	for format, uri := range formatURIs {
		uris[format] = uri
	}
	return Track{
		Language:   language,
		Label:      lang.Label(language, original),
		Original:   original,
		FormatURIs: uris,
	}
}

// FindTrack returns the track for a language code, if present.
func FindTrack(tracks []Track, language string) (Track, bool) {
	for _, track := range tracks {
		if track.Language == language {
			return track, true
		}
	}
	return Track{}, false
}

// DefaultTrack picks the track preferred when no explicit selection exists:
// the original-language track when flagged, else the first available.
func DefaultTrack(tracks []Track) (Track, bool) {
	if len(tracks) == 0 {
		return Track{}, false
	}
	for _, track := range tracks {
		if track.Original {
			return track, true
		}
	}
	return tracks[0], true
}
