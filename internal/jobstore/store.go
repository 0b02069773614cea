package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"lingocast/internal/config"
	"lingocast/internal/job"
)

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "jobs.db")
	// Pragmas go in the DSN so they apply to every pooled connection;
	// db.Exec would only configure whichever connection happens to run it.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save upserts the job's current state.
func (s *Store) Save(ctx context.Context, j *job.Job) error {
	if j == nil {
		return errors.New("job required")
	}
	snap := j.Snapshot()
	languagesJSON, err := json.Marshal(snap.Languages)
	if err != nil {
		return fmt.Errorf("marshal languages: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (
            id, asset_ref, asset_name, source_language, stage, displayed_percent,
            message, error_message, direct_play_uri, languages_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            source_language = excluded.source_language,
            stage = excluded.stage,
            displayed_percent = excluded.displayed_percent,
            message = excluded.message,
            error_message = excluded.error_message,
            direct_play_uri = excluded.direct_play_uri,
            languages_json = excluded.languages_json,
            updated_at = excluded.updated_at`,
		snap.ID,
		snap.AssetRef,
		snap.AssetName,
		snap.SourceLanguage,
		string(snap.Stage),
		snap.DisplayedPercent,
		snap.Message,
		snap.ErrorMessage,
		snap.DirectPlayURI,
		string(languagesJSON),
		snap.CreatedAt.UTC().Format(time.RFC3339Nano),
		snap.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save job %s: %w", snap.ID, err)
	}
	return nil
}

// GetByID loads one job, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*job.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, asset_ref, asset_name, source_language, stage, displayed_percent,
                message, error_message, direct_play_uri, languages_json, created_at, updated_at
         FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return j, err
}

// List returns all jobs ordered most recently updated first.
func (s *Store) List(ctx context.Context) ([]*job.Job, error) {
	return s.query(ctx,
		`SELECT id, asset_ref, asset_name, source_language, stage, displayed_percent,
                message, error_message, direct_play_uri, languages_json, created_at, updated_at
         FROM jobs ORDER BY updated_at DESC`)
}

// ListActive returns jobs that have not reached a terminal stage.
func (s *Store) ListActive(ctx context.Context) ([]*job.Job, error) {
	return s.query(ctx,
		`SELECT id, asset_ref, asset_name, source_language, stage, displayed_percent,
                message, error_message, direct_play_uri, languages_json, created_at, updated_at
         FROM jobs WHERE stage NOT IN (?, ?) ORDER BY updated_at DESC`,
		string(job.StageReady), string(job.StageFailed))
}

// Delete removes a job record.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

// SetManifests stores the discovered protocol -> manifest URI map.
func (s *Store) SetManifests(ctx context.Context, id string, manifests map[string]string) error {
	encoded, err := json.Marshal(manifests)
	if err != nil {
		return fmt.Errorf("marshal manifests: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE jobs SET manifests_json = ?, updated_at = ? WHERE id = ?",
		string(encoded), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("set manifests for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("job %s not found", id)
	}
	return nil
}

// GetManifests loads the stored manifest map for a job.
func (s *Store) GetManifests(ctx context.Context, id string) (map[string]string, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx, "SELECT manifests_json FROM jobs WHERE id = ?", id).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get manifests for %s: %w", id, err)
	}
	manifests := make(map[string]string)
	if encoded != "" {
		if err := json.Unmarshal([]byte(encoded), &manifests); err != nil {
			return nil, fmt.Errorf("decode manifests for %s: %w", id, err)
		}
	}
	return manifests, nil
}

func (s *Store) query(ctx context.Context, stmt string, args ...any) ([]*job.Job, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*job.Job, error) {
	var (
		id, assetRef, assetName, sourceLanguage, stage  string
		message, errorMessage, directURI, languagesJSON string
		createdAt, updatedAt                            string
		percent                                         float64
	)
	if err := row.Scan(&id, &assetRef, &assetName, &sourceLanguage, &stage, &percent,
		&message, &errorMessage, &directURI, &languagesJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	languages := make(map[string]bool)
	if languagesJSON != "" {
		if err := json.Unmarshal([]byte(languagesJSON), &languages); err != nil {
			return nil, fmt.Errorf("decode languages for %s: %w", id, err)
		}
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", id, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at for %s: %w", id, err)
	}

	parsedStage, ok := job.ParseStage(stage)
	if !ok {
		return nil, fmt.Errorf("job %s has unknown stage %q", id, stage)
	}

	return job.Restore(id, assetRef, assetName, sourceLanguage, parsedStage, percent,
		message, errorMessage, directURI, languages, created, updated), nil
}
