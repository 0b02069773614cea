// Package backend implements the HTTP client for the external processing
// service: asset submission, status polling, scoped stage work, caption
// tracks, and per-protocol manifest discovery.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"lingocast/internal/captions"
	"lingocast/internal/config"
	"lingocast/internal/lang"
	"lingocast/internal/logging"
	"lingocast/internal/media"
)

// Client talks to the processing service. All methods are safe for
// concurrent use; a shared limiter caps the aggregate request rate so
// concurrent pollers cannot hammer the service.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	uploadClient *http.Client
	limiter      *rate.Limiter
	logger       *slog.Logger
}

// NewClient constructs a Client from configuration.
func NewClient(cfg config.Backend, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		uploadClient: &http.Client{
			Timeout: time.Duration(cfg.UploadTimeoutMinutes) * time.Minute,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestBurst),
		logger:  logging.NewComponentLogger(logger, "backend"),
	}
}

// SubmitAsset uploads the asset with its initial language set and returns the
// job handle. The call holds the caller only for the physical upload.
func (c *Client) SubmitAsset(ctx context.Context, asset media.Asset, languages []string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", Wrap(ErrTransport, "", "uploading", "submit", err)
	}

	file, err := os.Open(asset.Path)
	if err != nil {
		return "", Wrap(ErrValidation, "", "uploading", "open asset", err)
	}
	defer file.Close()

	// Stream the multipart body so multi-gigabyte assets never sit in memory.
	pipeReader, pipeWriter := io.Pipe()
	writer := multipart.NewWriter(pipeWriter)
	go func() {
		part, err := writer.CreateFormFile("asset", asset.Name)
		if err != nil {
			_ = pipeWriter.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			_ = pipeWriter.CloseWithError(err)
			return
		}
		if err := writer.WriteField("languages", strings.Join(languages, ",")); err != nil {
			_ = pipeWriter.CloseWithError(err)
			return
		}
		_ = pipeWriter.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/assets", pipeReader)
	if err != nil {
		return "", Wrap(ErrTransport, "", "uploading", "submit", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return "", Wrap(ErrTransport, "", "uploading", "submit", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.statusError(resp, "", "uploading", "submit")
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", Wrap(ErrTransport, "", "uploading", "decode submit response", err)
	}
	if strings.TrimSpace(parsed.JobID) == "" {
		return "", Wrap(ErrTransport, "", "uploading", "submit", fmt.Errorf("service returned no job id"))
	}

	c.logger.Info("asset submitted",
		logging.String(logging.FieldJobID, parsed.JobID),
		logging.String("asset", asset.Name),
		logging.Int64("size_bytes", asset.Size),
	)
	return parsed.JobID, nil
}

// PollStatus fetches the current coarse status for a job.
func (c *Client) PollStatus(ctx context.Context, jobID string) (StatusPayload, error) {
	var payload statusResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/jobs/%s/status", jobID), jobID, "status", &payload); err != nil {
		return StatusPayload{}, err
	}
	return payload.StatusPayload, nil
}

// RequestStageWork asks the service to run the next pipeline stage scoped to
// the given languages. A purged intermediate artifact maps to ErrStaleJob.
func (c *Client) RequestStageWork(ctx context.Context, jobID string, languages []string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return Wrap(ErrTransport, jobID, "transcribing", "request stage work", err)
	}

	encoded, err := json.Marshal(stageWorkRequest{Languages: languages})
	if err != nil {
		return Wrap(ErrTransport, jobID, "transcribing", "encode stage work", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/jobs/%s/work", c.baseURL, jobID), bytes.NewReader(encoded))
	if err != nil {
		return Wrap(ErrTransport, jobID, "transcribing", "request stage work", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Wrap(ErrTransport, jobID, "transcribing", "request stage work", err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusGone:
		return Wrap(ErrStaleJob, jobID, "transcribing", "request stage work", fmt.Errorf("intermediate artifact purged"))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return c.statusError(resp, jobID, "transcribing", "request stage work")
	}
	return nil
}

// FetchTracks retrieves the caption tracks generated so far.
func (c *Client) FetchTracks(ctx context.Context, jobID string) ([]captions.Track, error) {
	var payload tracksResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/jobs/%s/tracks", jobID), jobID, "fetch tracks", &payload); err != nil {
		return nil, err
	}

	tracks := make([]captions.Track, 0, len(payload.Tracks))
	for _, t := range payload.Tracks {
		code, ok := lang.Normalize(t.Language)
		if !ok {
			c.logger.Warn("dropping track with unparseable language",
				logging.String(logging.FieldJobID, jobID),
				logging.String(logging.FieldLanguage, t.Language),
			)
			continue
		}
		tracks = append(tracks, captions.NewTrack(code, t.Original, t.FormatURIs))
	}
	return tracks, nil
}

// FetchManifest looks up the streaming manifest for one delivery protocol.
// A service-side miss maps to ErrNotFound so the resolver can keep retrying.
func (c *Client) FetchManifest(ctx context.Context, jobID, protocol string) (string, error) {
	var payload manifestResponse
	err := c.getJSON(ctx, fmt.Sprintf("/v1/jobs/%s/manifests/%s", jobID, protocol), jobID, "fetch manifest", &payload)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(payload.URI) == "" {
		return "", Wrap(ErrNotFound, jobID, "ready", "fetch manifest", fmt.Errorf("protocol %s not packaged yet", protocol))
	}
	return payload.URI, nil
}

func (c *Client) getJSON(ctx context.Context, path, jobID, operation string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return Wrap(ErrTransport, jobID, "", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return Wrap(ErrTransport, jobID, "", operation, err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Wrap(ErrTransport, jobID, "", operation, err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Wrap(ErrNotFound, jobID, "", operation, fmt.Errorf("resource missing"))
	case resp.StatusCode == http.StatusGone:
		return Wrap(ErrStaleJob, jobID, "", operation, fmt.Errorf("job purged"))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return c.statusError(resp, jobID, "", operation)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Wrap(ErrTransport, jobID, "", operation, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) statusError(resp *http.Response, jobID, stage, operation string) error {
	var parsed errorResponse
	detail := resp.Status
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&parsed); err == nil && parsed.Message != "" {
		detail = fmt.Sprintf("%s: %s", resp.Status, parsed.Message)
	}
	return Wrap(ErrTransport, jobID, stage, operation, fmt.Errorf("%s", detail))
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	_ = body.Close()
}
