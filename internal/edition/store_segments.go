package edition

import (
	"context"
	"database/sql"
	"fmt"

	"libretto/internal/segment"
)

// ReplaceSegments swaps the full segment list of an edition in one
// transaction. Positions are renumbered from the slice order.
func (s *Store) ReplaceSegments(ctx context.Context, editionID int64, segments []segment.Segment) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin segments tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE edition_id = ?`, editionID); err != nil {
			return fmt.Errorf("clear segments: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO segments (
            edition_id, position, start_sec, end_sec, text_final, text_source,
            candidate_text, flag, confidence
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare segment insert: %w", err)
		}
		defer stmt.Close()

		for i, seg := range segments {
			if _, err := stmt.ExecContext(ctx,
				editionID,
				i,
				seg.StartSec,
				seg.EndSec,
				nullableString(seg.TextFinal),
				nullableString(seg.TextSource),
				nullableString(seg.CandidateText),
				nullableString(string(seg.Flag)),
				seg.Confidence,
			); err != nil {
				return fmt.Errorf("insert segment %d: %w", i, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit segments: %w", err)
		}
		return nil
	})
}

// ListSegments returns the segments of an edition ordered by position.
func (s *Store) ListSegments(ctx context.Context, editionID int64) ([]segment.Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+segmentColumns+` FROM segments WHERE edition_id = ? ORDER BY position`,
		editionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var segments []segment.Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// CountSegments returns the number of stored segments for an edition.
func (s *Store) CountSegments(ctx context.Context, editionID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM segments WHERE edition_id = ?`, editionID,
	).Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("count segments: %w", err)
	}
	return count, nil
}
