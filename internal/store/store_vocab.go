package store

import (
	"context"
	"database/sql"
	"fmt"
)

// UpsertMapping creates or replaces the mapping for one (source, label) pair.
// A nil tagID records the label as explicitly ignored.
func (s *Store) UpsertMapping(ctx context.Context, source, label string, tagID *int64, multiplier float64) error {
	now := timestamp()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO vocab_mappings (source, label, tag_id, multiplier, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(source, label) DO UPDATE SET
             tag_id = excluded.tag_id,
             multiplier = excluded.multiplier,
             updated_at = excluded.updated_at`,
		source,
		label,
		nullableInt64(tagID),
		multiplier,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert mapping: %w", err)
	}
	return nil
}

// LookupMappings fetches mapping rows for a batch of labels from one source in
// a single query. Labels without a row are absent from the result; rows with a
// nil TagID are present so callers can distinguish "unmapped" from "ignored".
func (s *Store) LookupMappings(ctx context.Context, source string, labels []string) (map[string]VocabMapping, error) {
	result := make(map[string]VocabMapping, len(labels))
	if len(labels) == 0 {
		return result, nil
	}

	unique := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		unique = append(unique, label)
	}

	args := make([]any, 0, len(unique)+1)
	args = append(args, source)
	for _, label := range unique {
		args = append(args, label)
	}
	query := `SELECT source, label, tag_id, multiplier, created_at, updated_at
        FROM vocab_mappings WHERE source = ? AND label IN (` + makePlaceholders(len(unique)) + `)`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lookup mappings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			mapping    VocabMapping
			tagID      sql.NullInt64
			createdRaw sql.NullString
			updatedRaw sql.NullString
		)
		if err := rows.Scan(&mapping.Source, &mapping.Label, &tagID, &mapping.Multiplier, &createdRaw, &updatedRaw); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		if tagID.Valid {
			value := tagID.Int64
			mapping.TagID = &value
		}
		if created, err := parseTimeString(createdRaw.String); err == nil {
			mapping.CreatedAt = created
		}
		if updated, err := parseTimeString(updatedRaw.String); err == nil {
			mapping.UpdatedAt = updated
		}
		result[mapping.Label] = mapping
	}
	return result, rows.Err()
}

// RecordUnmappedLabels bumps the curator-facing counter for labels the mapper
// had to drop.
func (s *Store) RecordUnmappedLabels(ctx context.Context, source string, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	now := timestamp()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, label := range labels {
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO unmapped_labels (source, label, hit_count, last_seen)
                 VALUES (?, ?, 1, ?)
                 ON CONFLICT(source, label) DO UPDATE SET
                     hit_count = hit_count + 1,
                     last_seen = excluded.last_seen`,
				source,
				label,
				now,
			); err != nil {
				return fmt.Errorf("record unmapped label %q: %w", label, err)
			}
		}
		return nil
	})
}

// UnmappedLabels returns dropped labels ordered by how often they were seen.
func (s *Store) UnmappedLabels(ctx context.Context, limit int) ([]UnmappedLabel, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT source, label, hit_count, last_seen FROM unmapped_labels
         ORDER BY hit_count DESC, label LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query unmapped labels: %w", err)
	}
	defer rows.Close()

	var labels []UnmappedLabel
	for rows.Next() {
		var (
			entry   UnmappedLabel
			seenRaw sql.NullString
		)
		if err := rows.Scan(&entry.Source, &entry.Label, &entry.HitCount, &seenRaw); err != nil {
			return nil, fmt.Errorf("scan unmapped label: %w", err)
		}
		if seen, err := parseTimeString(seenRaw.String); err == nil {
			entry.LastSeen = seen
		}
		labels = append(labels, entry)
	}
	return labels, rows.Err()
}
