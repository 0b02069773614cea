// Package languages tracks the requested output language set and issues
// scoped generation requests, including idempotent re-entry on a completed
// job without resubmitting the source asset.
package languages

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"lingocast/internal/backend"
	"lingocast/internal/job"
	"lingocast/internal/lang"
	"lingocast/internal/logging"
)

// WorkClient is the slice of the backend the orchestrator needs.
type WorkClient interface {
	RequestStageWork(ctx context.Context, jobID string, languages []string) error
}

// Selection is a mutable set of candidate output languages, typically driven
// by UI toggles before a generation request is issued.
type Selection struct {
	mu    sync.Mutex
	codes map[string]struct{}
}

// NewSelection builds a selection seeded with initial codes.
func NewSelection(initial []string) *Selection {
	s := &Selection{codes: make(map[string]struct{})}
	for _, code := range lang.NormalizeAll(initial) {
		s.codes[code] = struct{}{}
	}
	return s
}

// SelectAll marks every available language selected.
func (s *Selection) SelectAll(available []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, code := range lang.NormalizeAll(available) {
		s.codes[code] = struct{}{}
	}
}

// ClearAll empties the selection.
func (s *Selection) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = make(map[string]struct{})
}

// Toggle flips one language in or out of the selection. Unparseable codes
// are ignored and reported false.
func (s *Selection) Toggle(code string) bool {
	normalized, ok := lang.Normalize(code)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, selected := s.codes[normalized]; selected {
		delete(s.codes, normalized)
		return false
	}
	s.codes[normalized] = struct{}{}
	return true
}

// Selected returns the sorted selected codes.
func (s *Selection) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.codes))
	for code := range s.codes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Orchestrator issues scoped stage-work requests for a job's target
// languages.
type Orchestrator struct {
	client WorkClient
	logger *slog.Logger
}

// NewOrchestrator constructs an orchestrator.
func NewOrchestrator(client WorkClient, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client: client,
		logger: logging.NewComponentLogger(logger, "languages"),
	}
}

// RequestGeneration asks the service to produce captions for the requested
// languages. On an in-flight job the languages simply join the requested
// set; on a Ready job the request is scoped to only the languages still
// lacking a completed track and the job re-enters Transcribing, reusing the
// already-extracted intermediate artifact. Previously completed languages
// keep their completion flags so their tracks remain playable throughout.
//
// A purged intermediate artifact surfaces as backend.ErrStaleJob; the caller
// must restart from submission, never retry here.
func (o *Orchestrator) RequestGeneration(ctx context.Context, j *job.Job, requested []string) ([]string, error) {
	normalized := lang.NormalizeAll(requested)
	if len(normalized) == 0 {
		return nil, fmt.Errorf("no valid language codes in request")
	}

	if j.Stage() == job.StageReady {
		// A ready job has nothing in flight, so every requested language
		// without a completed track needs this request: languages joining
		// the set now and languages an earlier cycle left pending alike.
		scope := j.UncoveredLanguages(normalized)
		if len(scope) == 0 {
			o.logger.Debug("generation request already covered",
				logging.String(logging.FieldJobID, j.ID()),
			)
			return nil, nil
		}
		if err := o.client.RequestStageWork(ctx, j.ID(), scope); err != nil {
			return nil, err
		}
		if err := j.Reopen(scope); err != nil {
			return nil, backend.Wrap(backend.ErrBackendFailure, j.ID(), string(j.Stage()), "reopen", err)
		}
		o.logger.Info("re-entry generation requested",
			logging.String(logging.FieldJobID, j.ID()),
			logging.Any("languages", scope),
		)
		return scope, nil
	}

	newLanguages := j.MissingLanguages(normalized)
	if len(newLanguages) == 0 {
		o.logger.Debug("generation request already covered",
			logging.String(logging.FieldJobID, j.ID()),
		)
		return nil, nil
	}

	// Job still in flight: union the codes here. The session issues a
	// supplemental scoped request when the stage trigger already fired,
	// otherwise the pending request carries the full set.
	j.AddLanguages(newLanguages)
	o.logger.Info("languages added to in-flight job",
		logging.String(logging.FieldJobID, j.ID()),
		logging.Any("languages", newLanguages),
	)
	return newLanguages, nil
}
