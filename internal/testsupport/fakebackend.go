package testsupport

import (
	"context"
	"fmt"
	"sync"

	"lingocast/internal/backend"
	"lingocast/internal/captions"
	"lingocast/internal/media"
)

// FakeBackend is a scriptable in-memory processing service. Status payloads
// are consumed in order; the final payload repeats once the script runs out.
type FakeBackend struct {
	mu sync.Mutex

	JobID     string
	Statuses  []backend.StatusPayload
	TrackSets [][]captions.Track
	Manifests map[string]string

	SubmitErr   error
	PollErr     error
	WorkErr     error
	TracksErr   error
	ManifestErr map[string]error

	statusIdx  int
	trackIdx   int
	Submitted  []string
	WorkCalls  [][]string
	PollCalls  int
	TrackCalls int
}

// NewFakeBackend returns a fake that assigns the given job ID on submission.
func NewFakeBackend(jobID string) *FakeBackend {
	return &FakeBackend{
		JobID:     jobID,
		Manifests: make(map[string]string),
	}
}

// SubmitAsset records the submission and returns the scripted job ID.
func (f *FakeBackend) SubmitAsset(ctx context.Context, asset media.Asset, languages []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubmitErr != nil {
		return "", f.SubmitErr
	}
	f.Submitted = append(f.Submitted, asset.Path)
	return f.JobID, nil
}

// PollStatus returns the next scripted payload.
func (f *FakeBackend) PollStatus(ctx context.Context, jobID string) (backend.StatusPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PollCalls++
	if f.PollErr != nil {
		return backend.StatusPayload{}, f.PollErr
	}
	if len(f.Statuses) == 0 {
		return backend.StatusPayload{}, fmt.Errorf("no scripted status for job %s", jobID)
	}
	payload := f.Statuses[f.statusIdx]
	if f.statusIdx < len(f.Statuses)-1 {
		f.statusIdx++
	}
	return payload, nil
}

// RequestStageWork records the languages requested for the next stage.
func (f *FakeBackend) RequestStageWork(ctx context.Context, jobID string, languages []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WorkErr != nil {
		return f.WorkErr
	}
	f.WorkCalls = append(f.WorkCalls, append([]string(nil), languages...))
	return nil
}

// FetchTracks returns the next scripted track set, or the last one once the
// script runs out.
func (f *FakeBackend) FetchTracks(ctx context.Context, jobID string) ([]captions.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TrackCalls++
	if f.TracksErr != nil {
		return nil, f.TracksErr
	}
	if len(f.TrackSets) == 0 {
		return nil, nil
	}
	tracks := f.TrackSets[f.trackIdx]
	if f.trackIdx < len(f.TrackSets)-1 {
		f.trackIdx++
	}
	return append([]captions.Track(nil), tracks...), nil
}

// FetchManifest resolves a scripted manifest URI, or reports not found.
func (f *FakeBackend) FetchManifest(ctx context.Context, jobID, protocol string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.ManifestErr[protocol]; ok && err != nil {
		return "", err
	}
	uri, ok := f.Manifests[protocol]
	if !ok {
		return "", backend.Wrap(backend.ErrNotFound, jobID, "", "fetch manifest", fmt.Errorf("no %s manifest", protocol))
	}
	return uri, nil
}

// WorkCallLog returns a copy of the recorded stage-work requests, safe to
// read while pollers are still running.
func (f *FakeBackend) WorkCallLog() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, 0, len(f.WorkCalls))
	for _, call := range f.WorkCalls {
		out = append(out, append([]string(nil), call...))
	}
	return out
}

// AppendStatus queues another status payload onto the script.
func (f *FakeBackend) AppendStatus(payload backend.StatusPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Statuses = append(f.Statuses, payload)
}

// SetManifest registers a discoverable manifest for a protocol.
func (f *FakeBackend) SetManifest(protocol, uri string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Manifests[protocol] = uri
}
