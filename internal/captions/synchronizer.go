package captions

import (
	"log/slog"
	"sync"

	"lingocast/internal/logging"
)

// Binder is the caption surface of the active playback adapter.
type Binder interface {
	ShowTrack(language string) error
	HideTracks() error
}

// Synchronizer enforces the single-showing-track invariant across every
// relevant change: track arrival, toggle flips, language changes, and
// protocol switches. Tracks arrive asynchronously after playback may already
// be underway, so enforcement runs on each input, not just at session start.
type Synchronizer struct {
	mu       sync.Mutex
	tracks   []Track
	enabled  bool
	selected string
	binder   Binder
	logger   *slog.Logger
}

// NewSynchronizer constructs a synchronizer with captions enabled or not.
func NewSynchronizer(enabled bool, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		enabled: enabled,
		logger:  logging.NewComponentLogger(logger, "captions"),
	}
}

// SetTracks replaces the known track set.
func (s *Synchronizer) SetTracks(tracks []Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = append([]Track(nil), tracks...)
	s.apply()
}

// Tracks returns a copy of the current track set.
func (s *Synchronizer) Tracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Track(nil), s.tracks...)
}

// SetEnabled flips the captions toggle.
func (s *Synchronizer) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	s.apply()
}

// Enabled reports the captions toggle.
func (s *Synchronizer) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Select chooses the preferred caption language.
func (s *Synchronizer) Select(language string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = language
	s.apply()
}

// Rebind attaches the synchronizer to a new adapter surface, re-applying the
// current selection. Pass nil on adapter teardown.
func (s *Synchronizer) Rebind(binder Binder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binder = binder
	s.apply()
}

// Showing returns the language currently showing, if any.
func (s *Synchronizer) Showing() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	track, ok := s.active()
	if !ok {
		return "", false
	}
	return track.Language, true
}

// active resolves which track should be showing under the current inputs.
// Callers hold s.mu.
func (s *Synchronizer) active() (Track, bool) {
	if !s.enabled || len(s.tracks) == 0 {
		return Track{}, false
	}
	if s.selected != "" {
		if track, ok := FindTrack(s.tracks, s.selected); ok {
			return track, true
		}
		// Selected language vanished (e.g. job reset); fall back to the
		// default rule rather than leaving nothing showing.
	}
	return DefaultTrack(s.tracks)
}

// apply pushes the resolved state to the bound adapter. Callers hold s.mu.
func (s *Synchronizer) apply() {
	if s.binder == nil {
		return
	}
	track, ok := s.active()
	if !ok {
		if err := s.binder.HideTracks(); err != nil {
			s.logger.Warn("hide caption tracks failed", logging.Error(err))
		}
		return
	}
	if err := s.binder.ShowTrack(track.Language); err != nil {
		s.logger.Warn("show caption track failed",
			logging.String(logging.FieldLanguage, track.Language),
			logging.Error(err),
		)
	}
}
