// Package reconcile turns the processing service's coarse, occasionally
// inconsistent status reports into a monotonic stage/progress view and
// triggers each pipeline transition exactly once.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"lingocast/internal/backend"
	"lingocast/internal/job"
	"lingocast/internal/lang"
	"lingocast/internal/logging"
	"lingocast/internal/metrics"
)

// StatusClient is the slice of the backend the reconciler needs.
type StatusClient interface {
	PollStatus(ctx context.Context, jobID string) (backend.StatusPayload, error)
}

// Hooks are invoked from the poll goroutine as the job moves through its
// lifecycle. NextStage and TracksReady fire at most once per flag flip; a
// returned error re-arms them so the next poll retries.
type Hooks struct {
	NextStage   func(ctx context.Context) error
	TracksReady func(ctx context.Context) error
	Ready       func(ctx context.Context)
	Failed      func(ctx context.Context, message string)
	Progress    func(snapshot job.Snapshot)
}

// Reconciler polls one job until it reaches a terminal stage.
type Reconciler struct {
	client   StatusClient
	interval time.Duration
	logger   *slog.Logger

	mu                 sync.Mutex
	job                *job.Job
	hooks              Hooks
	nextStageRequested bool
	tracksFetched      bool
	readyNotified      bool
	generation         int
	running            bool
	cancel             context.CancelFunc
	done               chan struct{}
}

// New constructs a reconciler for one job.
func New(client StatusClient, j *job.Job, interval time.Duration, logger *slog.Logger, hooks Hooks) *Reconciler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Reconciler{
		client:   client,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "reconciler"),
		job:      j,
		hooks:    hooks,
	}
}

// Start begins polling. It returns immediately; polling stops on terminal
// stage, Stop, or context cancellation.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("reconciler already running")
	}

	pollCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true
	r.generation++
	gen := r.generation

	go r.run(pollCtx, gen, r.done)
	return nil
}

// Stop cancels polling and waits for the poll goroutine to exit. A stale
// in-flight poll can never mutate state afterward: the generation it carries
// no longer matches.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	done := r.done
	r.running = false
	r.cancel = nil
	r.generation++
	r.mu.Unlock()

	cancel()
	<-done
}

// NextStageRequested reports whether the next-stage trigger has already been
// consumed in the current cycle. Languages added after that point need their
// own scoped stage-work request; the one that fired no longer covers them.
func (r *Reconciler) NextStageRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextStageRequested
}

// Reopen re-arms the reconciler for a scoped re-entry after the orchestrator
// has already issued the new stage-work request. Track fetching must run
// again for the new languages; the next-stage trigger stays consumed.
func (r *Reconciler) Reopen() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracksFetched = false
	r.readyNotified = false
	r.nextStageRequested = true
}

func (r *Reconciler) run(ctx context.Context, gen int, done chan struct{}) {
	defer close(done)
	// Reaching a terminal stage ends this goroutine without a Stop call; the
	// running flag must clear so a later re-entry can start polling again.
	defer func() {
		r.mu.Lock()
		if r.generation == gen {
			r.running = false
			r.cancel = nil
		}
		r.mu.Unlock()
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if terminal := r.step(ctx, gen); terminal {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// step performs one poll. It returns true when polling should stop.
func (r *Reconciler) step(ctx context.Context, gen int) bool {
	jobID := r.job.ID()

	payload, err := r.client.PollStatus(ctx, jobID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		// Transport failures recover on the next tick; never escalated.
		metrics.BackendErrors.WithLabelValues("poll_status").Inc()
		r.logger.Warn("status poll failed",
			logging.String(logging.FieldJobID, jobID),
			logging.Error(err),
		)
		return false
	}
	metrics.StatusPolls.Inc()

	r.mu.Lock()
	if gen != r.generation || ctx.Err() != nil {
		r.mu.Unlock()
		return true
	}
	terminal, hook := r.apply(payload)
	snapshot := r.job.Snapshot()
	r.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if r.hooks.Progress != nil {
		r.hooks.Progress(snapshot)
	}

	if terminal {
		// A failed track fetch re-arms itself; keep polling until it lands
		// so a Ready job never strands its caption tracks.
		r.mu.Lock()
		pending := r.job.Stage() == job.StageReady && !r.tracksFetched && r.hooks.TracksReady != nil
		r.mu.Unlock()
		if pending {
			return false
		}
	}
	return terminal
}

// apply folds one payload into the job under the lock and returns the
// terminal flag plus any hook to invoke outside the lock.
func (r *Reconciler) apply(payload backend.StatusPayload) (bool, func(context.Context)) {
	j := r.job

	if payload.Failed() {
		j.Fail(payload.Message)
		metrics.StageTransitions.WithLabelValues(string(job.StageFailed)).Inc()
		r.logger.Error("job failed",
			logging.String(logging.FieldJobID, j.ID()),
			logging.String("message", payload.Message),
		)
		failed := r.hooks.Failed
		message := payload.Message
		return true, func(ctx context.Context) {
			if failed != nil {
				failed(ctx, message)
			}
		}
	}

	current := j.Stage()
	nominal, ok := job.ParseStage(payload.Stage)
	if !ok {
		nominal = current
	}
	// A completed sub-stage means the packaged result is ready even when the
	// service still reports the previous stage name.
	if payload.SubStageAvailable {
		nominal = job.StageReady
	}

	flags := job.SubFlags{
		ReadyForNextStage:  payload.ReadyForNextStage,
		SubStageInProgress: payload.SubStageInProgress,
		SubStageAvailable:  payload.SubStageAvailable,
	}
	j.Ratchet(nominal, flags, payload.Percent)
	if payload.Message != "" {
		j.SetMessage(payload.Message)
	}
	if payload.DirectPlayURI != "" {
		j.SetDirectPlayURI(payload.DirectPlayURI)
	}
	if payload.DetectedLanguage != "" {
		if code, ok := lang.Normalize(payload.DetectedLanguage); ok {
			if j.SetSourceLanguageIfEmpty(code) {
				r.logger.Info("source language detected",
					logging.String(logging.FieldJobID, j.ID()),
					logging.String(logging.FieldLanguage, code),
				)
			}
		}
	}

	if nominal != current && current.Before(nominal) {
		if err := j.AdvanceStage(nominal); err == nil {
			metrics.StageTransitions.WithLabelValues(string(nominal)).Inc()
			r.logger.Info("stage advanced",
				logging.String(logging.FieldJobID, j.ID()),
				logging.String(logging.FieldStage, string(nominal)),
				logging.Float64(logging.FieldPercent, j.DisplayedPercent()),
			)
		}
	}

	var hooks []func(context.Context)

	if payload.ReadyForNextStage && !r.nextStageRequested && r.hooks.NextStage != nil {
		r.nextStageRequested = true
		next := r.hooks.NextStage
		hooks = append(hooks, func(ctx context.Context) {
			if err := next(ctx); err != nil {
				r.logger.Warn("next-stage trigger failed; will retry",
					logging.String(logging.FieldJobID, j.ID()),
					logging.Error(err),
				)
				r.mu.Lock()
				r.nextStageRequested = false
				r.mu.Unlock()
			}
		})
	}

	if payload.SubStageAvailable && !r.tracksFetched && r.hooks.TracksReady != nil {
		r.tracksFetched = true
		tracksReady := r.hooks.TracksReady
		hooks = append(hooks, func(ctx context.Context) {
			if err := tracksReady(ctx); err != nil {
				r.logger.Warn("track fetch failed; will retry",
					logging.String(logging.FieldJobID, j.ID()),
					logging.Error(err),
				)
				r.mu.Lock()
				r.tracksFetched = false
				r.mu.Unlock()
			}
		})
	}

	stage := j.Stage()
	terminal := stage.Terminal()
	if stage == job.StageReady && !r.readyNotified && r.hooks.Ready != nil {
		ready := r.hooks.Ready
		hooks = append(hooks, func(ctx context.Context) {
			// Hold the readiness signal until the caption tracks landed.
			r.mu.Lock()
			fetched := r.tracksFetched || r.hooks.TracksReady == nil
			if fetched {
				r.readyNotified = true
			}
			r.mu.Unlock()
			if fetched {
				ready(ctx)
			}
		})
	}

	if len(hooks) == 0 {
		return terminal, nil
	}
	return terminal, func(ctx context.Context) {
		for _, hook := range hooks {
			hook(ctx)
		}
	}
}
