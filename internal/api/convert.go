package api

import (
	"sort"

	"lingocast/internal/captions"
	"lingocast/internal/job"
	"lingocast/internal/lang"
)

// FromSnapshot converts a job snapshot to its API representation.
func FromSnapshot(snap job.Snapshot) Job {
	dto := Job{
		ID:               snap.ID,
		AssetName:        snap.AssetName,
		AssetRef:         snap.AssetRef,
		SourceLanguage:   snap.SourceLanguage,
		Stage:            string(snap.Stage),
		DisplayedPercent: snap.DisplayedPercent,
		Message:          snap.Message,
		ErrorMessage:     snap.ErrorMessage,
		DirectPlayURI:    snap.DirectPlayURI,
		Languages:        fromLanguages(snap.Languages, snap.SourceLanguage),
	}
	if !snap.CreatedAt.IsZero() {
		dto.CreatedAt = snap.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !snap.UpdatedAt.IsZero() {
		dto.UpdatedAt = snap.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromSnapshots converts a slice of job snapshots into API DTOs.
func FromSnapshots(snaps []job.Snapshot) []Job {
	if len(snaps) == 0 {
		return nil
	}
	out := make([]Job, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, FromSnapshot(snap))
	}
	return out
}

func fromLanguages(languages map[string]bool, sourceLanguage string) []JobLanguage {
	out := make([]JobLanguage, 0, len(languages))
	for code, complete := range languages {
		out = append(out, JobLanguage{
			Code:     code,
			Label:    lang.Label(code, code == sourceLanguage),
			Complete: complete,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// FromTrack converts a caption track to its API representation.
func FromTrack(track captions.Track) CaptionTrack {
	dto := CaptionTrack{
		Language: track.Language,
		Label:    track.Label,
		Original: track.Original,
	}
	if len(track.FormatURIs) > 0 {
		formats := make(map[string]string, len(track.FormatURIs))
		for format, uri := range track.FormatURIs {
			formats[format] = uri
		}
		dto.Formats = formats
	}
	return dto
}

// FromTracks converts a slice of caption tracks into API DTOs.
func FromTracks(tracks []captions.Track) []CaptionTrack {
	if len(tracks) == 0 {
		return nil
	}
	out := make([]CaptionTrack, 0, len(tracks))
	for _, track := range tracks {
		out = append(out, FromTrack(track))
	}
	return out
}

// FromManifests flattens a protocol to manifest URI map into a sorted list.
func FromManifests(manifests map[string]string) []Manifest {
	if len(manifests) == 0 {
		return nil
	}
	out := make([]Manifest, 0, len(manifests))
	for protocol, uri := range manifests {
		out = append(out, Manifest{Protocol: protocol, URI: uri})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Protocol < out[j].Protocol })
	return out
}
