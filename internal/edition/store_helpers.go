package edition

import (
	"database/sql"
	"errors"
	"time"

	"libretto/internal/segment"
)

const editionColumns = "id, artist, title, composer, work, category, source_url, caption_lang, instrumental, status, source_duration_sec, window_start_sec, window_end_sec, window_duration_sec, alignment_route, alignment_confidence, revision_notes, error_message, failed_from, created_at, updated_at"

func scanEdition(scanner interface{ Scan(dest ...any) error }) (*Edition, error) {
	var (
		id                  int64
		artist              sql.NullString
		title               sql.NullString
		composer            sql.NullString
		work                sql.NullString
		category            sql.NullString
		sourceURL           sql.NullString
		captionLang         sql.NullString
		instrumental        sql.NullInt64
		statusStr           string
		sourceDuration      sql.NullFloat64
		windowStart         sql.NullFloat64
		windowEnd           sql.NullFloat64
		windowDuration      sql.NullFloat64
		alignmentRoute      sql.NullString
		alignmentConfidence sql.NullFloat64
		revisionNotes       sql.NullString
		errorMessage        sql.NullString
		failedFrom          sql.NullString
		createdRaw          sql.NullString
		updatedRaw          sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&artist,
		&title,
		&composer,
		&work,
		&category,
		&sourceURL,
		&captionLang,
		&instrumental,
		&statusStr,
		&sourceDuration,
		&windowStart,
		&windowEnd,
		&windowDuration,
		&alignmentRoute,
		&alignmentConfidence,
		&revisionNotes,
		&errorMessage,
		&failedFrom,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	ed := &Edition{
		ID:                  id,
		Artist:              artist.String,
		Title:               title.String,
		Composer:            composer.String,
		Work:                work.String,
		Category:            category.String,
		SourceURL:           sourceURL.String,
		CaptionLang:         captionLang.String,
		Instrumental:        instrumental.Valid && instrumental.Int64 != 0,
		Status:              Status(statusStr),
		SourceDurationSec:   sourceDuration.Float64,
		AlignmentRoute:      alignmentRoute.String,
		AlignmentConfidence: alignmentConfidence.Float64,
		RevisionNotes:       revisionNotes.String,
		ErrorMessage:        errorMessage.String,
		FailedFrom:          Status(failedFrom.String),
	}
	if windowStart.Valid {
		v := windowStart.Float64
		ed.WindowStartSec = &v
	}
	if windowEnd.Valid {
		v := windowEnd.Float64
		ed.WindowEndSec = &v
	}
	if windowDuration.Valid {
		v := windowDuration.Float64
		ed.WindowDurationSec = &v
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		ed.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		ed.UpdatedAt = updated
	}
	return ed, nil
}

const segmentColumns = "id, position, start_sec, end_sec, text_final, text_source, candidate_text, flag, confidence"

func scanSegment(scanner interface{ Scan(dest ...any) error }) (segment.Segment, error) {
	var (
		id            int64
		position      int
		startSec      float64
		endSec        float64
		textFinal     sql.NullString
		textSource    sql.NullString
		candidateText sql.NullString
		flag          sql.NullString
		confidence    sql.NullFloat64
	)

	if err := scanner.Scan(
		&id,
		&position,
		&startSec,
		&endSec,
		&textFinal,
		&textSource,
		&candidateText,
		&flag,
		&confidence,
	); err != nil {
		return segment.Segment{}, err
	}

	return segment.Segment{
		ID:            id,
		Position:      position,
		StartSec:      startSec,
		EndSec:        endSec,
		TextFinal:     textFinal.String,
		TextSource:    textSource.String,
		CandidateText: candidateText.String,
		Flag:          segment.Flag(flag.String),
		Confidence:    confidence.Float64,
	}, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
