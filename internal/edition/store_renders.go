package edition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const renderColumns = "id, edition_id, lang, status, output_path, size_bytes, error_message, created_at, updated_at"

func scanRenderJob(scanner interface{ Scan(dest ...any) error }) (*RenderJob, error) {
	var (
		id           int64
		editionID    int64
		lang         string
		statusStr    string
		outputPath   sql.NullString
		sizeBytes    sql.NullInt64
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&editionID,
		&lang,
		&statusStr,
		&outputPath,
		&sizeBytes,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &RenderJob{
		ID:           id,
		EditionID:    editionID,
		Lang:         lang,
		Status:       JobStatus(statusStr),
		OutputPath:   outputPath.String,
		SizeBytes:    sizeBytes.Int64,
		ErrorMessage: errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

// UpsertRenderJob inserts or replaces the render job for one language. A
// re-dispatch of an errored language resets the row to pending.
func (s *Store) UpsertRenderJob(ctx context.Context, job *RenderJob) (*RenderJob, error) {
	if job == nil {
		return nil, errors.New("render job is nil")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO render_jobs (
            edition_id, lang, status, output_path, size_bytes, error_message,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (edition_id, lang) DO UPDATE SET
            status = excluded.status,
            output_path = excluded.output_path,
            size_bytes = excluded.size_bytes,
            error_message = excluded.error_message,
            updated_at = excluded.updated_at`,
		job.EditionID,
		job.Lang,
		job.Status,
		nullableString(job.OutputPath),
		job.SizeBytes,
		nullableString(job.ErrorMessage),
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("upsert render job: %w", err)
	}

	return s.GetRenderJob(ctx, job.EditionID, job.Lang)
}

// GetRenderJob fetches the render job for one (edition, language) pair.
// Missing rows return nil, nil.
func (s *Store) GetRenderJob(ctx context.Context, editionID int64, lang string) (*RenderJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+renderColumns+` FROM render_jobs WHERE edition_id = ? AND lang = ?`,
		editionID, lang,
	)
	job, err := scanRenderJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get render job: %w", err)
	}
	return job, nil
}

// ListRenderJobs returns the render jobs of an edition ordered by language.
func (s *Store) ListRenderJobs(ctx context.Context, editionID int64) ([]*RenderJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+renderColumns+` FROM render_jobs WHERE edition_id = ? ORDER BY lang`,
		editionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list render jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*RenderJob
	for rows.Next() {
		job, err := scanRenderJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ClearRenderJobs removes all render jobs of an edition. Used when a
// revision invalidates previously rendered output.
func (s *Store) ClearRenderJobs(ctx context.Context, editionID int64) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM render_jobs WHERE edition_id = ?`, editionID)
	if err != nil {
		return 0, fmt.Errorf("clear render jobs: %w", err)
	}
	return res.RowsAffected()
}
