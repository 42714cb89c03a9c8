package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const suggestionColumns = "id, image_id, tag_id, confidence, source, source_version, resolved_from_alias, hierarchy_derived, status, created_at, reviewed_at, reviewed_by"

// SaveGenerated persists merged candidates as pending suggestions inside one
// transaction. Rows colliding on (image_id, tag_id) are silently skipped: the
// unique index is the authority on "already suggested", so concurrent or
// retried attempts for the same image converge on one row. Returns how many
// rows were actually created.
func (s *Store) SaveGenerated(ctx context.Context, suggestions []Suggestion) (int, error) {
	if len(suggestions) == 0 {
		return 0, nil
	}

	created := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, suggestion := range suggestions {
			res, err := tx.ExecContext(
				ctx,
				`INSERT INTO suggestions (
                    image_id, tag_id, confidence, source, source_version,
                    resolved_from_alias, hierarchy_derived, status, created_at
                ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
                ON CONFLICT(image_id, tag_id) DO NOTHING`,
				suggestion.ImageID,
				suggestion.TagID,
				suggestion.Confidence,
				suggestion.Source,
				nullableString(suggestion.SourceVersion),
				boolToInt(suggestion.ResolvedFromAlias),
				boolToInt(suggestion.HierarchyDerived),
				SuggestionPending,
				timestamp(),
			)
			if err != nil {
				return fmt.Errorf("insert suggestion (image %d, tag %d): %w", suggestion.ImageID, suggestion.TagID, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			created += int(affected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// GetSuggestion fetches a suggestion by identifier. Returns nil when missing.
func (s *Store) GetSuggestion(ctx context.Context, id int64) (*Suggestion, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+suggestionColumns+` FROM suggestions WHERE id = ?`, id)
	suggestion, err := scanSuggestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get suggestion: %w", err)
	}
	return suggestion, nil
}

// HasSuggestions reports whether any suggestion rows exist for an image.
func (s *Store) HasSuggestions(ctx context.Context, imageID int64) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM suggestions WHERE image_id = ?`, imageID)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("count suggestions: %w", err)
	}
	return count > 0, nil
}

// SuggestionsForImage returns suggestions for an image, optionally filtered by
// status, ordered by descending confidence.
func (s *Store) SuggestionsForImage(ctx context.Context, imageID int64, statuses ...SuggestionStatus) ([]*Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE image_id = ?`
	args := []any{imageID}
	if len(statuses) > 0 {
		query += ` AND status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY confidence DESC, tag_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []*Suggestion
	for rows.Next() {
		suggestion, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, suggestion)
	}
	return suggestions, rows.Err()
}

// ApproveSuggestion transitions a pending suggestion to approved and links the
// tag to the image. The status update is guarded on pending, so racing
// reviewers cannot double-approve; the application insert ignores conflicts,
// so re-approval never duplicates the relation. The usage counter is bumped
// only when the application row is new. Returns false when the suggestion was
// not pending.
func (s *Store) ApproveSuggestion(ctx context.Context, id int64, reviewer string) (bool, error) {
	applied := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE suggestions SET status = ?, reviewed_at = ?, reviewed_by = ?
             WHERE id = ? AND status = ?`,
			SuggestionApproved,
			timestamp(),
			nullableString(reviewer),
			id,
			SuggestionPending,
		)
		if err != nil {
			return fmt.Errorf("approve suggestion: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return nil
		}
		applied = true

		var imageID, tagID int64
		row := tx.QueryRowContext(ctx, `SELECT image_id, tag_id FROM suggestions WHERE id = ?`, id)
		if err := row.Scan(&imageID, &tagID); err != nil {
			return fmt.Errorf("read approved suggestion: %w", err)
		}

		appRes, err := tx.ExecContext(
			ctx,
			`INSERT INTO tag_applications (image_id, tag_id, applied_by, created_at)
             VALUES (?, ?, ?, ?)
             ON CONFLICT(image_id, tag_id) DO NOTHING`,
			imageID,
			tagID,
			nullableString(reviewer),
			timestamp(),
		)
		if err != nil {
			return fmt.Errorf("insert tag application: %w", err)
		}
		inserted, err := appRes.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if inserted > 0 {
			if _, err := tx.ExecContext(ctx, `UPDATE tags SET usage_count = usage_count + 1 WHERE id = ?`, tagID); err != nil {
				return fmt.Errorf("bump tag usage: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// RejectSuggestion transitions a pending suggestion to rejected. Returns false
// when the suggestion was not pending.
func (s *Store) RejectSuggestion(ctx context.Context, id int64, reviewer string) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE suggestions SET status = ?, reviewed_at = ?, reviewed_by = ?
         WHERE id = ? AND status = ?`,
		SuggestionRejected,
		timestamp(),
		nullableString(reviewer),
		id,
		SuggestionPending,
	)
	if err != nil {
		return false, fmt.Errorf("reject suggestion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// TagApplied reports whether a tag application exists for (image, tag).
func (s *Store) TagApplied(ctx context.Context, imageID, tagID int64) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tag_applications WHERE image_id = ? AND tag_id = ?`, imageID, tagID)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("count tag applications: %w", err)
	}
	return count > 0, nil
}

// SuggestionStats aggregates suggestion counts by source, tag category, and status.
func (s *Store) SuggestionStats(ctx context.Context) ([]SuggestionStat, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT s.source, t.category, s.status, COUNT(1)
         FROM suggestions s JOIN tags t ON t.id = s.tag_id
         GROUP BY s.source, t.category, s.status
         ORDER BY s.source, t.category, s.status`,
	)
	if err != nil {
		return nil, fmt.Errorf("suggestion stats: %w", err)
	}
	defer rows.Close()

	var stats []SuggestionStat
	for rows.Next() {
		var (
			stat     SuggestionStat
			category string
			status   string
		)
		if err := rows.Scan(&stat.Source, &category, &status, &stat.Count); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		stat.Category = Category(category)
		stat.Status = SuggestionStatus(status)
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func scanSuggestion(scanner interface{ Scan(dest ...any) error }) (*Suggestion, error) {
	var (
		id            int64
		imageID       int64
		tagID         int64
		confidence    float64
		source        string
		sourceVersion sql.NullString
		fromAlias     sql.NullInt64
		derived       sql.NullInt64
		status        string
		createdRaw    sql.NullString
		reviewedRaw   sql.NullString
		reviewedBy    sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&imageID,
		&tagID,
		&confidence,
		&source,
		&sourceVersion,
		&fromAlias,
		&derived,
		&status,
		&createdRaw,
		&reviewedRaw,
		&reviewedBy,
	); err != nil {
		return nil, err
	}

	suggestion := &Suggestion{
		ID:            id,
		ImageID:       imageID,
		TagID:         tagID,
		Confidence:    confidence,
		Source:        source,
		SourceVersion: sourceVersion.String,
		Status:        SuggestionStatus(status),
		ReviewedBy:    reviewedBy.String,
	}
	if fromAlias.Valid {
		suggestion.ResolvedFromAlias = fromAlias.Int64 != 0
	}
	if derived.Valid {
		suggestion.HierarchyDerived = derived.Int64 != 0
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		suggestion.CreatedAt = created
	}
	if reviewedRaw.Valid {
		if reviewed, err := parseTimeString(reviewedRaw.String); err == nil {
			suggestion.ReviewedAt = &reviewed
		}
	}
	return suggestion, nil
}
