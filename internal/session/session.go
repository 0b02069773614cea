// Package session owns one job end to end: submission, reconciliation,
// language orchestration, manifest discovery, and playback coordination.
// All sub-components receive the session's state by handle; nothing is
// ambient.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"lingocast/internal/captions"
	"lingocast/internal/config"
	"lingocast/internal/gateway"
	"lingocast/internal/job"
	"lingocast/internal/jobstore"
	"lingocast/internal/languages"
	"lingocast/internal/logging"
	"lingocast/internal/manifest"
	"lingocast/internal/playback"
	"lingocast/internal/reconcile"
)

// Backend is the full processing-service surface a session consumes.
type Backend interface {
	gateway.Uploader
	reconcile.StatusClient
	languages.WorkClient
	manifest.DiscoveryClient
	FetchTracks(ctx context.Context, jobID string) ([]captions.Track, error)
}

// Update is one state change streamed to the caller.
type Update struct {
	Job           job.Snapshot
	Tracks        []captions.Track
	Manifests     map[string]string
	PlaybackReady bool
}

// Session coordinates a single job. Create one per submission; Close always
// cancels every poller and timer the session started.
type Session struct {
	cfg    *config.Config
	client Backend
	store  *jobstore.Store
	logger *slog.Logger

	gateway  *gateway.Gateway
	orch     *languages.Orchestrator
	resolver *manifest.Resolver
	selector *playback.Selector
	captions *captions.Synchronizer
	set      *manifest.Set

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	job           *job.Job
	rec           *reconcile.Reconciler
	tracks        []captions.Track
	playbackReady bool
	closed        bool

	updates chan Update
}

// New constructs an idle session. engine is the playback surface adapters
// drive; store may be nil to skip persistence.
func New(cfg *config.Config, client Backend, store *jobstore.Store, engine playback.Engine, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	set := manifest.NewSet()
	captionSync := captions.NewSynchronizer(cfg.Playback.CaptionsEnabled, logger)
	var preferred manifest.Protocol
	if parsed := manifest.ParseProtocols([]string{cfg.Playback.PreferredProtocol}); len(parsed) == 1 {
		preferred = parsed[0]
	}
	s := &Session{
		cfg:      cfg,
		client:   client,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "session"),
		gateway:  gateway.New(client, cfg.Ingest, logger),
		orch:     languages.NewOrchestrator(client, logger),
		resolver: manifest.NewResolver(client, cfg.Discovery.Attempts, time.Duration(cfg.Discovery.IntervalSeconds)*time.Second, logger),
		selector: playback.NewSelector(set, playback.DefaultFactories(engine), preferred, captionSync, logger),
		captions: captionSync,
		set:      set,
		ctx:      ctx,
		cancel:   cancel,
		updates:  make(chan Update, 64),
	}
	return s
}

// Updates streams state changes. The channel closes when the session closes.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Submit validates and uploads an asset, then starts reconciling the new job.
func (s *Session) Submit(ctx context.Context, path string, initialLanguages []string) (job.Snapshot, error) {
	s.mu.Lock()
	if s.job != nil {
		s.mu.Unlock()
		return job.Snapshot{}, errors.New("session already manages a job")
	}
	s.mu.Unlock()

	j, err := s.gateway.Submit(ctx, path, initialLanguages)
	if err != nil {
		return job.Snapshot{}, err
	}
	return s.adopt(j)
}

// Resume re-attaches the session to a persisted, non-terminal job.
func (s *Session) Resume(j *job.Job) (job.Snapshot, error) {
	s.mu.Lock()
	if s.job != nil {
		s.mu.Unlock()
		return job.Snapshot{}, errors.New("session already manages a job")
	}
	s.mu.Unlock()

	if j == nil {
		return job.Snapshot{}, errors.New("job required")
	}
	if j.Stage().Terminal() {
		return job.Snapshot{}, errors.New("job already terminal")
	}
	return s.adopt(j)
}

func (s *Session) adopt(j *job.Job) (job.Snapshot, error) {
	rec := reconcile.New(s.client, j, time.Duration(s.cfg.Reconciler.PollIntervalSeconds)*time.Second, s.logger, reconcile.Hooks{
		NextStage:   s.onNextStage,
		TracksReady: s.onTracksReady,
		Ready:       s.onReady,
		Failed:      s.onFailed,
		Progress:    s.onProgress,
	})

	s.mu.Lock()
	s.job = j
	s.rec = rec
	s.mu.Unlock()

	s.selector.BindJob(j.ID())
	s.persist()
	if err := rec.Start(s.ctx); err != nil {
		return job.Snapshot{}, err
	}

	snap := s.snapshotLocked()
	s.emit(snap)
	return snap, nil
}

// AddLanguages unions new output languages into the job. On a Ready job this
// triggers the scoped re-entry flow and resumes polling.
func (s *Session) AddLanguages(ctx context.Context, codes []string) error {
	s.mu.Lock()
	j := s.job
	rec := s.rec
	s.mu.Unlock()
	if j == nil {
		return errors.New("no job submitted")
	}

	wasReady := j.Stage() == job.StageReady
	added, err := s.orch.RequestGeneration(ctx, j, codes)
	if err != nil {
		return err
	}
	if len(added) == 0 {
		return nil
	}

	if !wasReady && rec.NextStageRequested() {
		// The transcription request for this cycle already went out, scoped
		// to the earlier language set; a supplemental scoped request is the
		// only thing that carries the addition to the service.
		if err := s.client.RequestStageWork(ctx, j.ID(), added); err != nil {
			return err
		}
	}

	if wasReady {
		// New work invalidates the previous readiness cycle: tracks must be
		// re-fetched and the poller restarted.
		s.mu.Lock()
		s.playbackReady = s.selector.Attached()
		s.mu.Unlock()
		rec.Reopen()
		if err := rec.Start(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("restart reconciler for re-entry", logging.Error(err))
		}
	}

	s.persist()
	s.emit(s.snapshotLocked())
	return nil
}

// SelectProtocol switches playback to a specific discovered protocol.
func (s *Session) SelectProtocol(ctx context.Context, protocol manifest.Protocol) error {
	if err := s.selector.Select(ctx, protocol); err != nil {
		return err
	}
	s.mu.Lock()
	s.playbackReady = s.selector.Attached()
	s.mu.Unlock()
	s.emit(s.snapshotLocked())
	return nil
}

// SetCaptionsEnabled flips the captions toggle.
func (s *Session) SetCaptionsEnabled(enabled bool) {
	s.captions.SetEnabled(enabled)
}

// SelectCaptionLanguage chooses the caption track language.
func (s *Session) SelectCaptionLanguage(code string) {
	s.captions.Select(code)
}

// Captions exposes the synchronizer for callers that render track state.
func (s *Session) Captions() *captions.Synchronizer {
	return s.captions
}

// Selector exposes the playback selector.
func (s *Session) Selector() *playback.Selector {
	return s.selector
}

// Snapshot returns the current job state, if a job exists.
func (s *Session) Snapshot() (job.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return job.Snapshot{}, false
	}
	return s.job.Snapshot(), true
}

// Tracks returns the current caption track set.
func (s *Session) Tracks() []captions.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]captions.Track(nil), s.tracks...)
}

// Manifests returns the discovered manifest map.
func (s *Session) Manifests() map[string]string {
	return s.set.Snapshot()
}

// PlaybackReady reports whether an adapter is attached.
func (s *Session) PlaybackReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playbackReady
}

// Close cancels every poller, detaches playback, and closes the update
// stream. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	rec := s.rec
	s.mu.Unlock()

	s.cancel()
	if rec != nil {
		rec.Stop()
	}
	s.wg.Wait()
	s.selector.Teardown()

	s.mu.Lock()
	close(s.updates)
	s.mu.Unlock()
}

func (s *Session) onNextStage(ctx context.Context) error {
	s.mu.Lock()
	j := s.job
	pending := j.PendingLanguages()
	id := j.ID()
	s.mu.Unlock()

	return s.client.RequestStageWork(ctx, id, pending)
}

func (s *Session) onTracksReady(ctx context.Context) error {
	s.mu.Lock()
	id := s.job.ID()
	s.mu.Unlock()

	tracks, err := s.client.FetchTracks(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tracks = tracks
	for _, track := range tracks {
		s.job.MarkLanguageComplete(track.Language)
	}
	s.mu.Unlock()

	s.captions.SetTracks(tracks)
	s.persist()
	s.emit(s.snapshotLocked())
	return nil
}

func (s *Session) onReady(ctx context.Context) {
	s.persist()
	s.emit(s.snapshotLocked())

	s.mu.Lock()
	id := s.job.ID()
	s.mu.Unlock()

	protocols := manifest.ParseProtocols(s.cfg.Discovery.Protocols)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.resolver.Resolve(s.ctx, id, protocols, s.set, func(protocol manifest.Protocol) {
			if err := s.selector.OnDiscovered(s.ctx, protocol); err != nil {
				s.logger.Warn("default adapter attach failed",
					logging.String(logging.FieldProtocol, string(protocol)),
					logging.Error(err),
				)
			}
			s.mu.Lock()
			s.playbackReady = s.selector.Attached()
			s.mu.Unlock()
			s.persistManifests()
			s.emit(s.snapshotLocked())
		})
		if err != nil {
			// Zero protocols resolved. The job stays Ready; the caller falls
			// back to non-adaptive direct playback.
			s.logger.Warn("manifest discovery yielded no protocols; direct playback fallback",
				logging.String(logging.FieldJobID, id),
				logging.Error(err),
			)
			s.emit(s.snapshotLocked())
		}
	}()
}

func (s *Session) onFailed(ctx context.Context, message string) {
	_ = ctx
	s.persist()
	s.emit(s.snapshotLocked())
}

func (s *Session) onProgress(snapshot job.Snapshot) {
	s.persist()
	s.emit(snapshot)
}

func (s *Session) snapshotLocked() job.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return job.Snapshot{}
	}
	return s.job.Snapshot()
}

func (s *Session) persist() {
	if s.store == nil {
		return
	}
	s.mu.Lock()
	j := s.job
	s.mu.Unlock()
	if j == nil {
		return
	}
	if err := s.store.Save(context.Background(), j); err != nil {
		s.logger.Warn("persist job failed", logging.Error(err))
	}
}

func (s *Session) persistManifests() {
	if s.store == nil {
		return
	}
	s.mu.Lock()
	j := s.job
	s.mu.Unlock()
	if j == nil {
		return
	}
	if err := s.store.SetManifests(context.Background(), j.ID(), s.set.Snapshot()); err != nil {
		s.logger.Warn("persist manifests failed", logging.Error(err))
	}
}

// emit publishes an update without ever blocking a poller; when the caller
// falls behind, the oldest update is dropped in favor of the newest.
func (s *Session) emit(snapshot job.Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	update := Update{
		Job:           snapshot,
		Tracks:        append([]captions.Track(nil), s.tracks...),
		Manifests:     s.set.Snapshot(),
		PlaybackReady: s.playbackReady,
	}
	defer s.mu.Unlock()

	for {
		select {
		case s.updates <- update:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}
