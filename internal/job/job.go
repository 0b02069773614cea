// Package job models one processing request end to end: its lifecycle stage,
// the monotone displayed-progress ratchet, and per-language completion.
// A Job is internally synchronized; the reconciler and the language
// orchestrator may touch it concurrently.
package job

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stage is the coarse lifecycle phase of a job.
type Stage string

const (
	StageUploading    Stage = "uploading"
	StageTranscribing Stage = "transcribing"
	StagePackaging    Stage = "packaging"
	StageReady        Stage = "ready"
	StageFailed       Stage = "failed"
)

var stageOrder = map[Stage]int{
	StageUploading:    0,
	StageTranscribing: 1,
	StagePackaging:    2,
	StageReady:        3,
}

var stageSet = map[Stage]struct{}{
	StageUploading:    {},
	StageTranscribing: {},
	StagePackaging:    {},
	StageReady:        {},
	StageFailed:       {},
}

// ParseStage converts a service-reported stage name into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// Terminal reports whether the stage ends polling.
func (s Stage) Terminal() bool {
	return s == StageReady || s == StageFailed
}

// Before reports whether s orders strictly before other. Failed has no
// position in the ordering and always compares false.
func (s Stage) Before(other Stage) bool {
	a, okA := stageOrder[s]
	b, okB := stageOrder[other]
	return okA && okB && a < b
}

// SubFlags are the correlated status booleans the service reports alongside
// a stage name. They refine the baseline percent lookup.
type SubFlags struct {
	ReadyForNextStage  bool
	SubStageInProgress bool
	SubStageAvailable  bool
}

// Baseline returns the floor percent for a stage and its sub-flags. The
// exact numbers are a smoothing heuristic; monotonicity is enforced by the
// ratchet, not by this table.
func Baseline(stage Stage, flags SubFlags) float64 {
	switch stage {
	case StageUploading:
		if flags.ReadyForNextStage {
			return 55
		}
		return 12
	case StageTranscribing:
		switch {
		case flags.SubStageAvailable:
			return 90
		case flags.SubStageInProgress:
			return 78
		default:
			return 64
		}
	case StagePackaging:
		return 95
	case StageReady:
		return 100
	default:
		return 0
	}
}

// Job is one processing request tracking a single media asset.
type Job struct {
	mu sync.Mutex

	id               string
	assetRef         string
	assetName        string
	sourceLanguage   string
	stage            Stage
	displayedPercent float64
	message          string
	errorMessage     string
	directPlayURI    string
	createdAt        time.Time
	updatedAt        time.Time

	// languages maps each requested output language to its completion flag.
	languages map[string]bool
}

// New creates a job in the uploading stage with the initial language set.
func New(id, assetRef, assetName string, languages []string) *Job {
	now := time.Now().UTC()
	j := &Job{
		id:        id,
		assetRef:  assetRef,
		assetName: assetName,
		stage:     StageUploading,
		createdAt: now,
		updatedAt: now,
		languages: make(map[string]bool, len(languages)),
	}
	for _, code := range languages {
		j.languages[code] = false
	}
	return j
}

// Restore rebuilds a job from persisted fields.
func Restore(id, assetRef, assetName, sourceLanguage string, stage Stage, percent float64, message, errorMessage, directURI string, languages map[string]bool, createdAt, updatedAt time.Time) *Job {
	langs := make(map[string]bool, len(languages))
	for code, done := range languages {
		langs[code] = done
	}
	return &Job{
		id:               id,
		assetRef:         assetRef,
		assetName:        assetName,
		sourceLanguage:   sourceLanguage,
		stage:            stage,
		displayedPercent: percent,
		message:          message,
		errorMessage:     errorMessage,
		directPlayURI:    directURI,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
		languages:        langs,
	}
}

// ID returns the job handle assigned at submission.
func (j *Job) ID() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.id
}

// Stage returns the current lifecycle stage.
func (j *Job) Stage() Stage {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stage
}

// DisplayedPercent returns the ratcheted progress percent.
func (j *Job) DisplayedPercent() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.displayedPercent
}

// SourceLanguage returns the detected source language, when known.
func (j *Job) SourceLanguage() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sourceLanguage
}

// SetSourceLanguageIfEmpty records the detected source language once.
// It reports whether the value was applied.
func (j *Job) SetSourceLanguageIfEmpty(code string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.sourceLanguage != "" {
		return false
	}
	j.sourceLanguage = code
	j.updatedAt = time.Now().UTC()
	return true
}

// SetMessage updates the status message.
func (j *Job) SetMessage(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.message = message
	j.updatedAt = time.Now().UTC()
}

// SetDirectPlayURI records the non-adaptive fallback URI.
func (j *Job) SetDirectPlayURI(uri string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.directPlayURI = uri
	j.updatedAt = time.Now().UTC()
}

// Ratchet folds a new progress observation into the displayed percent.
// Displayed progress never decreases regardless of what the service reports.
func (j *Job) Ratchet(stage Stage, flags SubFlags, serverPercent float64) float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	candidate := Baseline(stage, flags)
	if serverPercent > candidate {
		candidate = serverPercent
	}
	if candidate > j.displayedPercent {
		j.displayedPercent = candidate
	}
	j.updatedAt = time.Now().UTC()
	return j.displayedPercent
}

// AdvanceStage moves the job forward. Regressions are rejected; the only
// sanctioned backward move is Reopen.
func (j *Job) AdvanceStage(next Stage) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stage == next {
		return nil
	}
	if j.stage == StageFailed {
		return fmt.Errorf("job %s already failed", j.id)
	}
	if next != StageFailed && next.Before(j.stage) {
		return fmt.Errorf("job %s: stage %s would regress from %s", j.id, next, j.stage)
	}
	j.stage = next
	j.updatedAt = time.Now().UTC()
	return nil
}

// Fail marks the job terminally failed with the service message verbatim.
func (j *Job) Fail(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stage = StageFailed
	j.errorMessage = message
	j.message = message
	j.updatedAt = time.Now().UTC()
}

// Reopen performs the controlled Ready -> Transcribing re-entry scoped to
// newly added languages. Completion flags for finished languages are kept so
// their tracks stay fetchable throughout, and displayed progress drops to the
// transcribing baseline for the new work.
func (j *Job) Reopen(newLanguages []string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stage != StageReady {
		return fmt.Errorf("job %s: re-entry requires a ready job, stage is %s", j.id, j.stage)
	}
	if len(newLanguages) == 0 {
		return fmt.Errorf("job %s: re-entry requires at least one new language", j.id)
	}
	for _, code := range newLanguages {
		if _, exists := j.languages[code]; !exists {
			j.languages[code] = false
		}
	}
	j.stage = StageTranscribing
	j.displayedPercent = Baseline(StageTranscribing, SubFlags{})
	j.message = ""
	j.updatedAt = time.Now().UTC()
	return nil
}

// AddLanguages unions codes into the requested set without touching
// completion flags for languages already present.
func (j *Job) AddLanguages(codes []string) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	added := make([]string, 0, len(codes))
	for _, code := range codes {
		if _, exists := j.languages[code]; exists {
			continue
		}
		j.languages[code] = false
		added = append(added, code)
	}
	if len(added) > 0 {
		j.updatedAt = time.Now().UTC()
	}
	return added
}

// MarkLanguageComplete flips one language's completion flag.
func (j *Job) MarkLanguageComplete(code string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, exists := j.languages[code]; exists {
		j.languages[code] = true
		j.updatedAt = time.Now().UTC()
	}
}

// Languages returns a copy of the completion map.
func (j *Job) Languages() map[string]bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.languagesLocked()
}

func (j *Job) languagesLocked() map[string]bool {
	out := make(map[string]bool, len(j.languages))
	for code, done := range j.languages {
		out[code] = done
	}
	return out
}

// RequestedLanguages returns the sorted requested language codes.
func (j *Job) RequestedLanguages() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, 0, len(j.languages))
	for code := range j.languages {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// PendingLanguages returns the sorted languages still awaiting completion.
func (j *Job) PendingLanguages() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, 0, len(j.languages))
	for code, done := range j.languages {
		if !done {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

// MissingLanguages returns codes not yet in the requested set.
func (j *Job) MissingLanguages(codes []string) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if _, exists := j.languages[code]; !exists {
			out = append(out, code)
		}
	}
	return out
}

// UncoveredLanguages returns codes without a completed track, whether absent
// from the requested set or present and still pending.
func (j *Job) UncoveredLanguages(codes []string) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if done, exists := j.languages[code]; !exists || !done {
			out = append(out, code)
		}
	}
	return out
}
