package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"lingocast/internal/captions"
	"lingocast/internal/config"
	"lingocast/internal/job"
	"lingocast/internal/jobstore"
	"lingocast/internal/logging"
	"lingocast/internal/manifest"
	"lingocast/internal/playback"
	"lingocast/internal/session"
)

// Daemon coordinates job sessions and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *jobstore.Store
	client  session.Backend
	engine  playback.Engine
	logPath string

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	JobDBPath    string
	LockFilePath string
	ActiveJobs   int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobstore.Store, client session.Backend, engine playback.Engine, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || client == nil {
		return nil, errors.New("daemon requires config, store, and backend client")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if engine == nil {
		engine = playback.NewLogEngine(logger)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "lingocastd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		client:   client,
		engine:   engine,
		logPath:  filepath.Join(cfg.Paths.LogDir, "lingocast.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		sessions: make(map[string]*session.Session),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, resumes interrupted jobs, and brings up
// the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another lingocast daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.resumeActive(d.ctx)
	d.logger.Info("lingocast daemon started", logging.String("lock", d.lockPath))
	return nil
}

// resumeActive re-adopts every persisted non-terminal job.
func (d *Daemon) resumeActive(ctx context.Context) {
	jobs, err := d.store.ListActive(ctx)
	if err != nil {
		d.logger.Warn("list active jobs for resume", logging.Error(err))
		return
	}
	for _, j := range jobs {
		sess := d.newSession()
		snap, err := sess.Resume(j)
		if err != nil {
			d.logger.Warn("resume job failed",
				logging.String(logging.FieldJobID, j.ID()),
				logging.Error(err),
			)
			sess.Close()
			continue
		}
		d.mu.Lock()
		d.sessions[snap.ID] = sess
		d.mu.Unlock()
		d.logger.Info("job resumed",
			logging.String(logging.FieldJobID, snap.ID),
			logging.String(logging.FieldStage, string(snap.Stage)),
		)
	}
}

// Stop closes every session and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}

	d.mu.Lock()
	sessions := make([]*session.Session, 0, len(d.sessions))
	for _, sess := range d.sessions {
		sessions = append(sessions, sess)
	}
	d.sessions = make(map[string]*session.Session)
	d.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("lingocast daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

func (d *Daemon) newSession() *session.Session {
	return session.New(d.cfg, d.client, d.store, d.engine, d.logger)
}

// Submit validates and uploads a new asset, returning the created job.
func (d *Daemon) Submit(ctx context.Context, path string, languages []string) (job.Snapshot, error) {
	if !d.running.Load() {
		return job.Snapshot{}, errors.New("daemon not running")
	}
	sess := d.newSession()
	snap, err := sess.Submit(ctx, path, languages)
	if err != nil {
		sess.Close()
		return job.Snapshot{}, err
	}
	d.mu.Lock()
	d.sessions[snap.ID] = sess
	d.mu.Unlock()
	return snap, nil
}

// AddLanguages unions new output languages into a tracked job.
func (d *Daemon) AddLanguages(ctx context.Context, jobID string, codes []string) (job.Snapshot, error) {
	sess, ok := d.session(jobID)
	if !ok {
		return job.Snapshot{}, fmt.Errorf("job %s is not active", jobID)
	}
	if err := sess.AddLanguages(ctx, codes); err != nil {
		return job.Snapshot{}, err
	}
	snap, _ := sess.Snapshot()
	return snap, nil
}

// SelectProtocol switches a tracked job's playback to a discovered protocol.
func (d *Daemon) SelectProtocol(ctx context.Context, jobID string, protocol manifest.Protocol) error {
	sess, ok := d.session(jobID)
	if !ok {
		return fmt.Errorf("job %s is not active", jobID)
	}
	return sess.SelectProtocol(ctx, protocol)
}

// ListJobs returns snapshots for every known job, active sessions first
// overriding stale store rows.
func (d *Daemon) ListJobs(ctx context.Context) ([]job.Snapshot, error) {
	stored, err := d.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	snaps := make(map[string]job.Snapshot, len(stored))
	for _, j := range stored {
		snap := j.Snapshot()
		snaps[snap.ID] = snap
	}
	d.mu.Lock()
	for id, sess := range d.sessions {
		if snap, ok := sess.Snapshot(); ok {
			snaps[id] = snap
		}
	}
	d.mu.Unlock()

	out := make([]job.Snapshot, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// GetJob returns one job's snapshot, preferring the live session view.
func (d *Daemon) GetJob(ctx context.Context, jobID string) (job.Snapshot, bool, error) {
	if sess, ok := d.session(jobID); ok {
		if snap, ok := sess.Snapshot(); ok {
			return snap, true, nil
		}
	}
	j, err := d.store.GetByID(ctx, jobID)
	if err != nil {
		return job.Snapshot{}, false, err
	}
	if j == nil {
		return job.Snapshot{}, false, nil
	}
	return j.Snapshot(), true, nil
}

// Tracks returns the caption tracks fetched for a tracked job.
func (d *Daemon) Tracks(jobID string) ([]captions.Track, bool) {
	sess, ok := d.session(jobID)
	if !ok {
		return nil, false
	}
	return sess.Tracks(), true
}

// Manifests returns a job's discovered manifest map, falling back to the
// store for jobs without a live session.
func (d *Daemon) Manifests(ctx context.Context, jobID string) (map[string]string, error) {
	if sess, ok := d.session(jobID); ok {
		return sess.Manifests(), nil
	}
	return d.store.GetManifests(ctx, jobID)
}

// Session returns the live session for a job, when one exists.
func (d *Daemon) Session(jobID string) (*session.Session, bool) {
	return d.session(jobID)
}

func (d *Daemon) session(jobID string) (*session.Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sess, ok := d.sessions[jobID]
	return sess, ok
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	active := len(d.sessions)
	d.mu.Unlock()
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		JobDBPath:    d.store.Path(),
		LockFilePath: d.lockPath,
		ActiveJobs:   active,
	}
}
