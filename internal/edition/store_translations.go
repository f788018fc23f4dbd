package edition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const translationColumns = "id, edition_id, lang, title, captions_json, overlay_json, tags, error_message, created_at, updated_at"

func scanTranslation(scanner interface{ Scan(dest ...any) error }) (*Translation, error) {
	var (
		id           int64
		editionID    int64
		lang         string
		title        sql.NullString
		captionsJSON sql.NullString
		overlayJSON  sql.NullString
		tags         sql.NullString
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&editionID,
		&lang,
		&title,
		&captionsJSON,
		&overlayJSON,
		&tags,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	tr := &Translation{
		ID:           id,
		EditionID:    editionID,
		Lang:         lang,
		Title:        title.String,
		CaptionsJSON: captionsJSON.String,
		OverlayJSON:  overlayJSON.String,
		Tags:         tags.String,
		ErrorMessage: errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		tr.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		tr.UpdatedAt = updated
	}
	return tr, nil
}

// UpsertTranslation inserts or replaces the translation for one language.
func (s *Store) UpsertTranslation(ctx context.Context, tr *Translation) (*Translation, error) {
	if tr == nil {
		return nil, errors.New("translation is nil")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO translations (
            edition_id, lang, title, captions_json, overlay_json, tags,
            error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (edition_id, lang) DO UPDATE SET
            title = excluded.title,
            captions_json = excluded.captions_json,
            overlay_json = excluded.overlay_json,
            tags = excluded.tags,
            error_message = excluded.error_message,
            updated_at = excluded.updated_at`,
		tr.EditionID,
		tr.Lang,
		nullableString(tr.Title),
		nullableString(tr.CaptionsJSON),
		nullableString(tr.OverlayJSON),
		nullableString(tr.Tags),
		nullableString(tr.ErrorMessage),
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("upsert translation: %w", err)
	}

	return s.GetTranslation(ctx, tr.EditionID, tr.Lang)
}

// GetTranslation fetches the translation for one (edition, language) pair.
// Missing rows return nil, nil.
func (s *Store) GetTranslation(ctx context.Context, editionID int64, lang string) (*Translation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+translationColumns+` FROM translations WHERE edition_id = ? AND lang = ?`,
		editionID, lang,
	)
	tr, err := scanTranslation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get translation: %w", err)
	}
	return tr, nil
}

// ListTranslations returns the translations of an edition ordered by
// language.
func (s *Store) ListTranslations(ctx context.Context, editionID int64) ([]*Translation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+translationColumns+` FROM translations WHERE edition_id = ? ORDER BY lang`,
		editionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	defer rows.Close()

	var translations []*Translation
	for rows.Next() {
		tr, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		translations = append(translations, tr)
	}
	return translations, rows.Err()
}
