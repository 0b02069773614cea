package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"lingocast/internal/backend"
	"lingocast/internal/captions"
	"lingocast/internal/logging"
	"lingocast/internal/manifest"
	"lingocast/internal/metrics"
)

// Selector chooses one delivery protocol and owns construction and teardown
// of exactly one adapter. Switches are strictly sequential: a request that
// arrives while a switch is in flight queues behind it instead of racing.
type Selector struct {
	set       *manifest.Set
	factories map[manifest.Protocol][]Factory
	preferred manifest.Protocol
	sync      *captions.Synchronizer
	logger    *slog.Logger

	mu        sync.Mutex
	jobID     string
	selected  manifest.Protocol
	adapter   Adapter
	switching bool
	queue     []manifest.Protocol
}

// NewSelector constructs a selector over a manifest set. preferred names the
// protocol that takes over from the first-discovered default once its own
// manifest resolves; empty means the default stands.
func NewSelector(set *manifest.Set, factories map[manifest.Protocol][]Factory, preferred manifest.Protocol, sync *captions.Synchronizer, logger *slog.Logger) *Selector {
	return &Selector{
		set:       set,
		factories: factories,
		preferred: preferred,
		sync:      sync,
		logger:    logging.NewComponentLogger(logger, "playback"),
	}
}

// BindJob records the job handle carried in playback error context.
func (s *Selector) BindJob(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobID = jobID
}

// OnDiscovered reacts to a protocol joining the manifest set. The first
// discovery becomes the default selection; the preferred protocol, when
// discovered later, takes over from that default. A discovery landing while
// a switch is in flight never steals the selection.
func (s *Selector) OnDiscovered(ctx context.Context, protocol manifest.Protocol) error {
	s.mu.Lock()
	switch {
	case s.selected == "" && !s.switching && len(s.queue) == 0:
		s.switching = true
		s.mu.Unlock()
		return s.drain(ctx, protocol)
	case protocol == s.preferred && s.selected != protocol && !s.enqueuedLocked(protocol):
		if s.switching {
			s.queue = append(s.queue, protocol)
			s.mu.Unlock()
			return nil
		}
		s.switching = true
		s.mu.Unlock()
		return s.drain(ctx, protocol)
	default:
		s.mu.Unlock()
		return nil
	}
}

// Select switches playback to the given protocol. If a switch is already in
// flight the request queues and Select returns immediately.
func (s *Selector) Select(ctx context.Context, protocol manifest.Protocol) error {
	if _, ok := s.set.URI(protocol); !ok {
		return fmt.Errorf("protocol %s has no discovered manifest", protocol)
	}

	s.mu.Lock()
	if s.switching {
		s.queue = append(s.queue, protocol)
		s.mu.Unlock()
		return nil
	}
	s.switching = true
	s.mu.Unlock()

	return s.drain(ctx, protocol)
}

// drain switches to protocol, then to everything queued meanwhile. The
// caller must have claimed the switching flag under the lock.
func (s *Selector) drain(ctx context.Context, protocol manifest.Protocol) error {
	err := s.switchTo(ctx, protocol)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.switching = false
			s.mu.Unlock()
			return err
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		err = s.switchTo(ctx, next)
	}
}

func (s *Selector) enqueuedLocked(protocol manifest.Protocol) bool {
	for _, queued := range s.queue {
		if queued == protocol {
			return true
		}
	}
	return false
}

// switchTo performs one teardown-then-attach cycle. The caller holds the
// switching flag, so exactly one of these runs at a time.
func (s *Selector) switchTo(ctx context.Context, protocol manifest.Protocol) error {
	uri, ok := s.set.URI(protocol)
	if !ok {
		return fmt.Errorf("protocol %s has no discovered manifest", protocol)
	}

	s.mu.Lock()
	current := s.adapter
	s.adapter = nil
	s.mu.Unlock()

	// Full teardown always precedes attach; buffers and network handles are
	// released before the replacement exists.
	if current != nil {
		s.sync.Rebind(nil)
		if err := current.Detach(); err != nil {
			s.logger.Warn("adapter detach reported error",
				logging.String(logging.FieldProtocol, string(current.Protocol())),
				logging.Error(err),
			)
		}
	}

	adapter, err := s.construct(ctx, protocol, uri)
	if err != nil {
		s.mu.Lock()
		s.selected = protocol
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.selected = protocol
	s.adapter = adapter
	s.mu.Unlock()

	s.sync.Rebind(adapter)
	metrics.AdapterSwitches.Inc()
	s.logger.Info("adapter attached", logging.String(logging.FieldProtocol, string(protocol)))
	return nil
}

// construct tries the protocol's ranked factories in order.
func (s *Selector) construct(ctx context.Context, protocol manifest.Protocol, uri string) (Adapter, error) {
	s.mu.Lock()
	jobID := s.jobID
	s.mu.Unlock()

	factories := s.factories[protocol]
	if len(factories) == 0 {
		return nil, backend.Wrap(backend.ErrPlaybackInit, jobID, "ready", "construct adapter",
			fmt.Errorf("no adapter factory for protocol %s", protocol))
	}

	var lastErr error
	for _, factory := range factories {
		adapter, err := factory.New(uri)
		if err != nil {
			lastErr = err
			continue
		}
		if err := adapter.Attach(ctx); err != nil {
			lastErr = err
			_ = adapter.Detach()
			continue
		}
		return adapter, nil
	}
	return nil, backend.Wrap(backend.ErrPlaybackInit, jobID, "ready", "construct adapter", lastErr)
}

// Current returns the selected protocol, if any.
func (s *Selector) Current() (manifest.Protocol, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != ""
}

// Attached reports whether an adapter is currently attached.
func (s *Selector) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adapter != nil
}

// Teardown detaches any attached adapter and clears the selection. Used on
// session close and reset.
func (s *Selector) Teardown() {
	s.mu.Lock()
	current := s.adapter
	s.adapter = nil
	s.selected = ""
	s.queue = nil
	s.mu.Unlock()

	if current != nil {
		s.sync.Rebind(nil)
		if err := current.Detach(); err != nil {
			s.logger.Warn("adapter detach reported error", logging.Error(err))
		}
	}
}
