// Package manifest discovers, per delivery protocol, the document needed to
// stream a packaged job, with a bounded retry budget per protocol.
package manifest

import (
	"sort"
	"sync"
)

// Protocol identifies one streaming delivery protocol.
type Protocol string

const (
	// ProtocolHLS is segmented delivery via media playlists.
	ProtocolHLS Protocol = "hls"
	// ProtocolDASH is manifest-driven adaptive delivery.
	ProtocolDASH Protocol = "dash"
)

// ParseProtocols filters a config protocol list down to known values,
// preserving order.
func ParseProtocols(values []string) []Protocol {
	out := make([]Protocol, 0, len(values))
	for _, value := range values {
		switch Protocol(value) {
		case ProtocolHLS, ProtocolDASH:
			out = append(out, Protocol(value))
		}
	}
	return out
}

// Set is the discovered protocol -> manifest URI map. Entries are append
// only: a protocol is never removed once discovered.
type Set struct {
	mu    sync.RWMutex
	uris  map[Protocol]string
	order []Protocol
}

// NewSet returns an empty manifest set.
func NewSet() *Set {
	return &Set{uris: make(map[Protocol]string)}
}

// Add records a discovered manifest. The first write for a protocol wins;
// later duplicates are ignored. It reports whether this was the set's first
// entry overall.
func (s *Set) Add(protocol Protocol, uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.uris[protocol]; exists {
		return false
	}
	first := len(s.order) == 0
	s.uris[protocol] = uri
	s.order = append(s.order, protocol)
	return first
}

// URI returns the manifest URI for a protocol.
func (s *Set) URI(protocol Protocol) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uri, ok := s.uris[protocol]
	return uri, ok
}

// First returns the earliest discovered protocol.
func (s *Set) First() (Protocol, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return "", false
	}
	return s.order[0], true
}

// Protocols returns the discovered protocols in discovery order.
func (s *Set) Protocols() []Protocol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Protocol, len(s.order))
	copy(out, s.order)
	return out
}

// Len reports how many protocols have resolved.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Snapshot returns a plain map copy for persistence and API views, keyed by
// protocol name sorted for stable iteration.
func (s *Set) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.uris))
	for protocol, uri := range s.uris {
		out[string(protocol)] = uri
	}
	return out
}

// SortedProtocols returns the discovered protocols sorted by name.
func (s *Set) SortedProtocols() []Protocol {
	out := s.Protocols()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
