package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const modelVersionColumns = "id, model_name, version, artifact_path, active, deployed_at, metrics_json, created_at"

// RecordModelVersion registers a deployed model artifact. New versions start inactive.
func (s *Store) RecordModelVersion(ctx context.Context, modelName, version, artifactPath, metricsJSON string) (*ModelVersion, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO model_versions (model_name, version, artifact_path, active, metrics_json, created_at)
         VALUES (?, ?, ?, 0, ?, ?)`,
		modelName,
		version,
		nullableString(artifactPath),
		nullableString(metricsJSON),
		timestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert model version: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetModelVersion(ctx, id)
}

// GetModelVersion fetches a model version by identifier. Returns nil when missing.
func (s *Store) GetModelVersion(ctx context.Context, id int64) (*ModelVersion, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+modelVersionColumns+` FROM model_versions WHERE id = ?`, id)
	version, err := scanModelVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get model version: %w", err)
	}
	return version, nil
}

// ActiveModelVersion returns the active version for a model name, or nil when
// none is active.
func (s *Store) ActiveModelVersion(ctx context.Context, modelName string) (*ModelVersion, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+modelVersionColumns+` FROM model_versions
         WHERE model_name = ? AND active = 1 ORDER BY id DESC LIMIT 1`,
		modelName,
	)
	version, err := scanModelVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active model version: %w", err)
	}
	return version, nil
}

// ActivateModelVersion marks one version active and deactivates its siblings
// in the same transaction, preserving the one-active-per-model invariant.
func (s *Store) ActivateModelVersion(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var modelName string
		row := tx.QueryRowContext(ctx, `SELECT model_name FROM model_versions WHERE id = ?`, id)
		if err := row.Scan(&modelName); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("model version %d does not exist", id)
			}
			return fmt.Errorf("read model version: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE model_versions SET active = 0 WHERE model_name = ?`, modelName); err != nil {
			return fmt.Errorf("deactivate model versions: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE model_versions SET active = 1, deployed_at = ? WHERE id = ?`,
			timestamp(),
			id,
		); err != nil {
			return fmt.Errorf("activate model version: %w", err)
		}
		return nil
	})
}

// ModelVersions lists versions for a model name, newest first. An empty name
// lists every model.
func (s *Store) ModelVersions(ctx context.Context, modelName string) ([]*ModelVersion, error) {
	query := `SELECT ` + modelVersionColumns + ` FROM model_versions`
	var args []any
	if modelName != "" {
		query += ` WHERE model_name = ?`
		args = append(args, modelName)
	}
	query += ` ORDER BY model_name, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query model versions: %w", err)
	}
	defer rows.Close()

	var versions []*ModelVersion
	for rows.Next() {
		version, err := scanModelVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func scanModelVersion(scanner interface{ Scan(dest ...any) error }) (*ModelVersion, error) {
	var (
		id           int64
		modelName    string
		version      string
		artifactPath sql.NullString
		active       sql.NullInt64
		deployedRaw  sql.NullString
		metricsJSON  sql.NullString
		createdRaw   sql.NullString
	)
	if err := scanner.Scan(&id, &modelName, &version, &artifactPath, &active, &deployedRaw, &metricsJSON, &createdRaw); err != nil {
		return nil, err
	}

	record := &ModelVersion{
		ID:           id,
		ModelName:    modelName,
		Version:      version,
		ArtifactPath: artifactPath.String,
		MetricsJSON:  metricsJSON.String,
	}
	if active.Valid {
		record.Active = active.Int64 != 0
	}
	if deployedRaw.Valid {
		if deployed, err := parseTimeString(deployedRaw.String); err == nil {
			record.DeployedAt = &deployed
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	return record, nil
}
