package backend

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for the failure taxonomy. Callers classify with errors.Is.
var (
	// ErrValidation marks an asset rejected before any network call.
	ErrValidation = errors.New("validation error")
	// ErrTransport marks a network call failure; owning pollers recover via
	// their natural retry cadence.
	ErrTransport = errors.New("transport error")
	// ErrBackendFailure marks a job the processing service declared failed.
	// Terminal; the message is surfaced verbatim.
	ErrBackendFailure = errors.New("backend failure")
	// ErrTimeout marks an exhausted retry budget for one protocol's manifest
	// discovery. Degrades that protocol only.
	ErrTimeout = errors.New("timeout")
	// ErrPlaybackInit marks an adapter that failed to construct.
	ErrPlaybackInit = errors.New("playback init error")
	// ErrStaleJob marks a re-entry attempt against a purged intermediate
	// artifact; the caller must restart from submission.
	ErrStaleJob = errors.New("stale job reference")
	// ErrNotFound marks a resource the service does not have yet. Discovery
	// treats it as retryable.
	ErrNotFound = errors.New("not found")
)

// Wrap tags err with a sentinel marker and the job/stage context every
// surfaced error must carry.
func Wrap(marker error, jobID, stage, operation string, err error) error {
	if marker == nil {
		marker = ErrTransport
	}
	detail := buildDetail(jobID, stage, operation)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(jobID, stage, operation string) string {
	parts := make([]string, 0, 3)
	if jobID = strings.TrimSpace(jobID); jobID != "" {
		parts = append(parts, "job "+jobID)
	}
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if len(parts) == 0 {
		return "backend call"
	}
	return strings.Join(parts, ": ")
}
