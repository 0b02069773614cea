package job

import "time"

// Snapshot is an immutable copy of a job's observable state, safe to hand
// across goroutines.
type Snapshot struct {
	ID               string
	AssetRef         string
	AssetName        string
	SourceLanguage   string
	Stage            Stage
	DisplayedPercent float64
	Message          string
	ErrorMessage     string
	DirectPlayURI    string
	Languages        map[string]bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Snapshot captures the job's current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		ID:               j.id,
		AssetRef:         j.assetRef,
		AssetName:        j.assetName,
		SourceLanguage:   j.sourceLanguage,
		Stage:            j.stage,
		DisplayedPercent: j.displayedPercent,
		Message:          j.message,
		ErrorMessage:     j.errorMessage,
		DirectPlayURI:    j.directPlayURI,
		Languages:        j.languagesLocked(),
		CreatedAt:        j.createdAt,
		UpdatedAt:        j.updatedAt,
	}
}
