package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const tagColumns = "id, title, category, alias_of, parent_id, usage_count, created_at"

// CreateTag inserts a new taxonomy entry and returns the stored row.
func (s *Store) CreateTag(ctx context.Context, title string, category Category, aliasOf, parentID *int64) (*Tag, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO tags (title, category, alias_of, parent_id, usage_count, created_at)
         VALUES (?, ?, ?, ?, 0, ?)`,
		title,
		category,
		nullableInt64(aliasOf),
		nullableInt64(parentID),
		timestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetTag(ctx, id)
}

// GetTag fetches a tag by identifier. Returns nil when the tag does not exist.
func (s *Store) GetTag(ctx context.Context, id int64) (*Tag, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)
	tag, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

// TagsByIDs fetches a batch of tags in one query, keyed by identifier.
// Missing identifiers are simply absent from the result.
func (s *Store) TagsByIDs(ctx context.Context, ids []int64) (map[int64]*Tag, error) {
	result := make(map[int64]*Tag, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	args := make([]any, len(unique))
	for i, id := range unique {
		args[i] = id
	}
	query := `SELECT ` + tagColumns + ` FROM tags WHERE id IN (` + makePlaceholders(len(unique)) + `)`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		result[tag.ID] = tag
	}
	return result, rows.Err()
}

// SetTagAlias repoints a tag's synonym target. A nil target clears the alias.
func (s *Store) SetTagAlias(ctx context.Context, id int64, aliasOf *int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE tags SET alias_of = ? WHERE id = ?`, nullableInt64(aliasOf), id)
	if err != nil {
		return fmt.Errorf("set tag alias: %w", err)
	}
	return nil
}

// SetTagParent repoints a tag's inheritance parent. A nil parent clears it.
func (s *Store) SetTagParent(ctx context.Context, id int64, parentID *int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE tags SET parent_id = ? WHERE id = ?`, nullableInt64(parentID), id)
	if err != nil {
		return fmt.Errorf("set tag parent: %w", err)
	}
	return nil
}

func scanTag(scanner interface{ Scan(dest ...any) error }) (*Tag, error) {
	var (
		id         int64
		title      string
		category   string
		aliasOf    sql.NullInt64
		parentID   sql.NullInt64
		usageCount int64
		createdRaw sql.NullString
	)
	if err := scanner.Scan(&id, &title, &category, &aliasOf, &parentID, &usageCount, &createdRaw); err != nil {
		return nil, err
	}

	tag := &Tag{
		ID:         id,
		Title:      title,
		Category:   Category(category),
		UsageCount: usageCount,
	}
	if aliasOf.Valid {
		value := aliasOf.Int64
		tag.AliasOf = &value
	}
	if parentID.Valid {
		value := parentID.Int64
		tag.ParentID = &value
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		tag.CreatedAt = created
	}
	return tag, nil
}
