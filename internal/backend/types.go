package backend

import "strings"

// FailurePercent is the raw progress sentinel the service reports when a job
// has hard-failed. Any negative value is treated the same way.
const FailurePercent = -1

// StatusPayload is one poll result from the processing service. The stage
// name is coarse and the percent is not guaranteed monotone; the reconciler
// owns turning this into a stable view.
type StatusPayload struct {
	Stage              string  `json:"stage"`
	Percent            float64 `json:"percent"`
	Message            string  `json:"message"`
	ReadyForNextStage  bool    `json:"ready_for_next_stage"`
	SubStageInProgress bool    `json:"substage_in_progress"`
	SubStageAvailable  bool    `json:"substage_available"`
	DetectedLanguage   string  `json:"detected_language,omitempty"`
	DirectPlayURI      string  `json:"direct_play_uri,omitempty"`
}

// Failed reports whether the payload carries the hard-failure sentinel.
func (p StatusPayload) Failed() bool {
	return p.Percent <= FailurePercent || strings.EqualFold(strings.TrimSpace(p.Stage), "failed")
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	StatusPayload
}

type stageWorkRequest struct {
	Languages []string `json:"languages"`
}

type trackPayload struct {
	Language   string            `json:"language"`
	Original   bool              `json:"original"`
	FormatURIs map[string]string `json:"format_uris"`
}

type tracksResponse struct {
	Tracks []trackPayload `json:"tracks"`
}

type manifestResponse struct {
	URI string `json:"uri"`
}

type errorResponse struct {
	Message string `json:"message"`
}
