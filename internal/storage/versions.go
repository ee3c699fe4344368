package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/chrisminnick/starboard2/internal/models"
)

// insertVersion appends a version with the next ordinal. The caller must
// hold the project row lock.
func insertVersion(ctx context.Context, tx *sql.Tx, projectID, content, comment string) (*models.Version, error) {
	var v models.Version
	err := tx.QueryRowContext(ctx,
		`INSERT INTO project_versions (id, project_id, version, content, comment)
		 SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4
		 FROM project_versions WHERE project_id = $2
		 RETURNING id, version, content, comment, created_at`,
		uuid.NewString(), projectID, content, comment,
	).Scan(&v.ID, &v.Number, &v.Content, &v.Comment, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func listVersions(ctx context.Context, q querier, projectID string) ([]models.Version, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, version, content, comment, created_at
		 FROM project_versions WHERE project_id = $1 ORDER BY version`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := []models.Version{}
	for rows.Next() {
		var v models.Version
		if err := rows.Scan(&v.ID, &v.Number, &v.Content, &v.Comment, &v.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// ListVersions returns the version history of the owner's project, oldest
// first.
func (s *Storage) ListVersions(ctx context.Context, ownerID, projectID string) ([]models.Version, error) {
	const op = "storage.ListVersions"
	if err := ctxDone(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !validID(ownerID, projectID) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err := ownsProject(ctx, s.DB, ownerID, projectID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	versions, err := listVersions(ctx, s.DB, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return versions, nil
}

// CreateVersion snapshots the project's current content.
func (s *Storage) CreateVersion(ctx context.Context, ownerID, projectID, comment string) (*models.Version, error) {
	const op = "storage.CreateVersion"
	if err := ctxDone(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !validID(ownerID, projectID) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var created *models.Version
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var content string
		err := tx.QueryRowContext(ctx,
			`SELECT content FROM projects WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
			projectID, ownerID).Scan(&content)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if created, err = insertVersion(ctx, tx, projectID, content, comment); err != nil {
			return err
		}
		return touchProject(ctx, tx, projectID)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}
