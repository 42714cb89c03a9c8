package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const runColumns = "id, attempt_id, image_id, status, attempts, partial, failed_sources, suggestions_created, error_message, started_at, finished_at"

// StartRun records the beginning of a generation run for an image.
func (s *Store) StartRun(ctx context.Context, attemptID string, imageID int64) (*GenerationRun, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO generation_runs (attempt_id, image_id, status, attempts, started_at)
         VALUES (?, ?, ?, 0, ?)`,
		attemptID,
		imageID,
		RunRunning,
		timestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert generation run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRun(ctx, id)
}

// RunOutcome captures the terminal state persisted by FinishRun.
type RunOutcome struct {
	Status             RunStatus
	Attempts           int
	Partial            bool
	FailedSources      []string
	SuggestionsCreated int
	ErrorMessage       string
}

// FinishRun persists the terminal state of a generation run.
func (s *Store) FinishRun(ctx context.Context, id int64, outcome RunOutcome) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE generation_runs
         SET status = ?, attempts = ?, partial = ?, failed_sources = ?,
             suggestions_created = ?, error_message = ?, finished_at = ?
         WHERE id = ?`,
		outcome.Status,
		outcome.Attempts,
		boolToInt(outcome.Partial),
		nullableString(strings.Join(outcome.FailedSources, ",")),
		outcome.SuggestionsCreated,
		nullableString(outcome.ErrorMessage),
		timestamp(),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish generation run: %w", err)
	}
	return nil
}

// GetRun fetches a generation run by identifier. Returns nil when missing.
func (s *Store) GetRun(ctx context.Context, id int64) (*GenerationRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM generation_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get generation run: %w", err)
	}
	return run, nil
}

// RecentRuns lists generation runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*GenerationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM generation_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query generation runs: %w", err)
	}
	defer rows.Close()

	var runs []*GenerationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*GenerationRun, error) {
	var (
		id            int64
		attemptID     string
		imageID       int64
		status        string
		attempts      int
		partial       sql.NullInt64
		failedSources sql.NullString
		created       int
		errorMessage  sql.NullString
		startedRaw    sql.NullString
		finishedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&attemptID,
		&imageID,
		&status,
		&attempts,
		&partial,
		&failedSources,
		&created,
		&errorMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	run := &GenerationRun{
		ID:                 id,
		AttemptID:          attemptID,
		ImageID:            imageID,
		Status:             RunStatus(status),
		Attempts:           attempts,
		SuggestionsCreated: created,
		ErrorMessage:       errorMessage.String,
	}
	if partial.Valid {
		run.Partial = partial.Int64 != 0
	}
	if failedSources.Valid && failedSources.String != "" {
		run.FailedSources = strings.Split(failedSources.String, ",")
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}
