// Package api defines the transport-friendly representations shared by the
// HTTP surface, the IPC channel, and the CLI renderers.
package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a processing job in a transport-friendly format.
type Job struct {
	ID               string        `json:"id"`
	AssetName        string        `json:"assetName"`
	AssetRef         string        `json:"assetRef,omitempty"`
	SourceLanguage   string        `json:"sourceLanguage,omitempty"`
	Stage            string        `json:"stage"`
	DisplayedPercent float64       `json:"displayedPercent"`
	Message          string        `json:"message,omitempty"`
	ErrorMessage     string        `json:"errorMessage,omitempty"`
	DirectPlayURI    string        `json:"directPlayUri,omitempty"`
	Languages        []JobLanguage `json:"languages"`
	CreatedAt        string        `json:"createdAt,omitempty"`
	UpdatedAt        string        `json:"updatedAt,omitempty"`
}

// JobLanguage pairs one requested output language with its completion flag.
type JobLanguage struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Complete bool   `json:"complete"`
}

// CaptionTrack describes one caption track available for playback.
type CaptionTrack struct {
	Language string            `json:"language"`
	Label    string            `json:"label"`
	Original bool              `json:"original"`
	Formats  map[string]string `json:"formats,omitempty"`
}

// Manifest names one discovered streaming manifest.
type Manifest struct {
	Protocol string `json:"protocol"`
	URI      string `json:"uri"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// TracksResponse wraps a job's caption tracks.
type TracksResponse struct {
	JobID  string         `json:"jobId"`
	Tracks []CaptionTrack `json:"tracks"`
}

// ManifestsResponse wraps a job's discovered manifests.
type ManifestsResponse struct {
	JobID     string     `json:"jobId"`
	Manifests []Manifest `json:"manifests"`
}

// AddLanguagesRequest asks for additional output languages on a job.
type AddLanguagesRequest struct {
	Languages []string `json:"languages"`
}

// SubmitRequest names a local asset path and its initial output languages.
type SubmitRequest struct {
	Path      string   `json:"path"`
	Languages []string `json:"languages"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	JobDBPath    string `json:"jobDbPath"`
	LockFilePath string `json:"lockFilePath"`
	ActiveJobs   int    `json:"activeJobs"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
