// Package gateway validates and submits source assets, returning the job
// handle the rest of the pipeline tracks.
package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"lingocast/internal/backend"
	"lingocast/internal/config"
	"lingocast/internal/job"
	"lingocast/internal/lang"
	"lingocast/internal/logging"
	"lingocast/internal/media"
)

// Uploader is the slice of the backend the gateway needs.
type Uploader interface {
	SubmitAsset(ctx context.Context, asset media.Asset, languages []string) (string, error)
}

// Gateway performs local validation before any network call, then uploads.
type Gateway struct {
	uploader Uploader
	ingest   config.Ingest
	logger   *slog.Logger
}

// New constructs a gateway.
func New(uploader Uploader, ingest config.Ingest, logger *slog.Logger) *Gateway {
	return &Gateway{
		uploader: uploader,
		ingest:   ingest,
		logger:   logging.NewComponentLogger(logger, "gateway"),
	}
}

// Submit validates the asset and initial languages locally, uploads the
// asset, and returns the new job. Validation failures never touch the
// network; upload failures surface as transport errors. The call returns as
// soon as the physical upload completes.
func (g *Gateway) Submit(ctx context.Context, path string, initialLanguages []string) (*job.Job, error) {
	submissionID := uuid.NewString()
	logger := g.logger.With(logging.String("submission_id", submissionID))

	asset, err := media.Inspect(path)
	if err != nil {
		return nil, backend.Wrap(backend.ErrValidation, "", string(job.StageUploading), "inspect asset", err)
	}
	if err := media.Validate(asset, g.ingest.AllowedExtensions, g.ingest.MaxAssetMiB); err != nil {
		return nil, backend.Wrap(backend.ErrValidation, "", string(job.StageUploading), "validate asset", err)
	}

	languages := lang.NormalizeAll(initialLanguages)
	if len(languages) == 0 {
		return nil, backend.Wrap(backend.ErrValidation, "", string(job.StageUploading), "validate languages",
			fmt.Errorf("at least one valid output language is required"))
	}

	jobID, err := g.uploader.SubmitAsset(ctx, asset, languages)
	if err != nil {
		return nil, err
	}

	j := job.New(jobID, asset.Path, asset.Name, languages)

	logger.Info("job submitted",
		logging.String(logging.FieldJobID, jobID),
		logging.String("asset", asset.Name),
		logging.Any("languages", languages),
	)
	return j, nil
}
