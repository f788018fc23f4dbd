package edition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NewParams carries the metadata captured when an edition is registered.
type NewParams struct {
	Artist       string
	Title        string
	Composer     string
	Work         string
	Category     string
	SourceURL    string
	CaptionLang  string
	Instrumental bool
}

// New inserts an edition in the awaiting state.
func (s *Store) New(ctx context.Context, params NewParams) (*Edition, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO editions (
            artist, title, composer, work, category, source_url, caption_lang,
            instrumental, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(params.Artist),
		nullableString(params.Title),
		nullableString(params.Composer),
		nullableString(params.Work),
		nullableString(params.Category),
		nullableString(params.SourceURL),
		nullableString(params.CaptionLang),
		boolToInt(params.Instrumental),
		StatusAwaiting,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert edition: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches an edition by identifier. Missing rows return nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Edition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+editionColumns+` FROM editions WHERE id = ?`, id)
	ed, err := scanEdition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get edition: %w", err)
	}
	return ed, nil
}

// Update persists changes to an existing edition.
func (s *Store) Update(ctx context.Context, ed *Edition) error {
	if ed == nil {
		return errors.New("edition is nil")
	}
	ed.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE editions
         SET artist = ?, title = ?, composer = ?, work = ?, category = ?,
             source_url = ?, caption_lang = ?, instrumental = ?, status = ?,
             source_duration_sec = ?, window_start_sec = ?, window_end_sec = ?,
             window_duration_sec = ?, alignment_route = ?, alignment_confidence = ?,
             revision_notes = ?, error_message = ?, failed_from = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(ed.Artist),
		nullableString(ed.Title),
		nullableString(ed.Composer),
		nullableString(ed.Work),
		nullableString(ed.Category),
		nullableString(ed.SourceURL),
		nullableString(ed.CaptionLang),
		boolToInt(ed.Instrumental),
		ed.Status,
		ed.SourceDurationSec,
		nullableFloat(ed.WindowStartSec),
		nullableFloat(ed.WindowEndSec),
		nullableFloat(ed.WindowDurationSec),
		nullableString(ed.AlignmentRoute),
		ed.AlignmentConfidence,
		nullableString(ed.RevisionNotes),
		nullableString(ed.ErrorMessage),
		nullableString(string(ed.FailedFrom)),
		ed.UpdatedAt.Format(time.RFC3339Nano),
		ed.ID,
	); err != nil {
		return fmt.Errorf("update edition: %w", err)
	}
	return nil
}

// List returns editions filtered by status set (or all editions when no
// status is provided), ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Edition, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + editionColumns + ` FROM editions`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list editions: %w", err)
	}
	defer rows.Close()

	var editions []*Edition
	for rows.Next() {
		ed, err := scanEdition(rows)
		if err != nil {
			return nil, err
		}
		editions = append(editions, ed)
	}
	return editions, rows.Err()
}

// NextForStatuses returns the oldest edition matching any of the provided
// statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Edition, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + editionColumns + ` FROM editions WHERE status IN (` + placeholders + `) ORDER BY updated_at LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	ed, err := scanEdition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ed, nil
}

// Remove deletes an edition and its dependent rows through cascade.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM editions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete edition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearDone removes only finished editions.
func (s *Store) ClearDone(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM editions WHERE status = ?`, StatusDone)
	if err != nil {
		return 0, fmt.Errorf("clear done: %w", err)
	}
	return res.RowsAffected()
}
