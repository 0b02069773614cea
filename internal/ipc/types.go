package ipc

import "lingocast/internal/api"

// Job mirrors the HTTP API job DTO for internal IPC callers.
type Job = api.Job

// CaptionTrack mirrors the HTTP API caption track DTO.
type CaptionTrack = api.CaptionTrack

// Manifest mirrors the HTTP API manifest DTO.
type Manifest = api.Manifest

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	JobDBPath    string `json:"job_db_path"`
	LockPath     string `json:"lock_path"`
	ActiveJobs   int    `json:"active_jobs"`
	DaemonLog    string `json:"daemon_log"`
	SocketPath   string `json:"socket_path"`
	ConfigSource string `json:"config_source"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// SubmitRequest submits a local asset with initial output languages.
type SubmitRequest struct {
	Path      string   `json:"path"`
	Languages []string `json:"languages"`
}

// SubmitResponse contains the created job.
type SubmitResponse struct {
	Job Job `json:"job"`
}

// JobListRequest fetches all known jobs.
type JobListRequest struct{}

// JobListResponse contains job entries.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobDescribeRequest fetches a single job by id.
type JobDescribeRequest struct {
	ID string `json:"id"`
}

// JobDescribeResponse contains a single job entry.
type JobDescribeResponse struct {
	Job Job `json:"job"`
}

// AddLanguagesRequest unions new output languages into a job.
type AddLanguagesRequest struct {
	ID        string   `json:"id"`
	Languages []string `json:"languages"`
}

// AddLanguagesResponse contains the updated job.
type AddLanguagesResponse struct {
	Job Job `json:"job"`
}

// TracksRequest fetches a job's caption tracks.
type TracksRequest struct {
	ID string `json:"id"`
}

// TracksResponse contains caption tracks.
type TracksResponse struct {
	Tracks []CaptionTrack `json:"tracks"`
}

// ManifestsRequest fetches a job's discovered manifests.
type ManifestsRequest struct {
	ID string `json:"id"`
}

// ManifestsResponse contains discovered manifests.
type ManifestsResponse struct {
	Manifests []Manifest `json:"manifests"`
}

// SelectProtocolRequest switches a job's playback protocol.
type SelectProtocolRequest struct {
	ID       string `json:"id"`
	Protocol string `json:"protocol"`
}

// SelectProtocolResponse indicates the switch result.
type SelectProtocolResponse struct {
	Protocol string `json:"protocol"`
}
