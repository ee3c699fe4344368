package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/chrisminnick/starboard2/internal/models"
)

const projectColumns = `id, owner_id, title, description, template, genre, target_audience,
	word_count_goal, content, current_word_count, auto_save, advisor_panel_visible, font_size,
	status, created_at, updated_at`

const summaryColumns = `id, title, description, template, status, current_word_count,
	word_count_goal, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	var (
		p    models.Project
		goal sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Template, &p.Genre,
		&p.TargetAudience, &goal, &p.Content, &p.CurrentWordCount,
		&p.Settings.AutoSave, &p.Settings.AdvisorPanelVisible, &p.Settings.FontSize,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.WordCountGoal = intPtr(goal)
	return &p, nil
}

func scanSummary(row interface{ Scan(...any) error }) (models.ProjectSummary, error) {
	var (
		s    models.ProjectSummary
		goal sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Template, &s.Status,
		&s.CurrentWordCount, &goal, &s.UpdatedAt)
	s.WordCountGoal = intPtr(goal)
	return s, err
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// CreateProject inserts p with a fresh id and returns the stored project.
func (s *Storage) CreateProject(ctx context.Context, p models.Project) (*models.Project, error) {
	const op = "storage.CreateProject"
	if err := ctxDone(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !validID(p.OwnerID) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	p.ID = uuid.NewString()
	query := `INSERT INTO projects (id, owner_id, title, description, template, genre, target_audience,
			      word_count_goal, content, current_word_count, auto_save, advisor_panel_visible, font_size,
			      status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			  RETURNING ` + projectColumns
	row := s.DB.QueryRowContext(ctx, query,
		p.ID, p.OwnerID, p.Title, p.Description, p.Template, p.Genre, p.TargetAudience,
		nullInt(p.WordCountGoal), p.Content, p.CurrentWordCount,
		p.Settings.AutoSave, p.Settings.AdvisorPanelVisible, p.Settings.FontSize,
		p.Status, p.CreatedAt, p.UpdatedAt)
	created, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	created.Versions = []models.Version{}
	created.AdvisorInteractions = []models.Interaction{}
	return created, nil
}

// ListProjects returns the owner's project summaries, most recently updated
// first.
func (s *Storage) ListProjects(ctx context.Context, ownerID string) ([]models.ProjectSummary, error) {
	const op = "storage.ListProjects"
	if err := ctxDone(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !validID(ownerID) {
		return []models.ProjectSummary{}, nil
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM projects WHERE owner_id = $1 ORDER BY updated_at DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := []models.ProjectSummary{}
	for rows.Next() {
		item, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetProject loads the owner's project with its versions, interactions and
// advisor memory.
func (s *Storage) GetProject(ctx context.Context, ownerID, projectID string) (*models.Project, error) {
	const op = "storage.GetProject"
	if err := ctxDone(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !validID(ownerID, projectID) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND owner_id = $2`,
		projectID, ownerID)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if p.Versions, err = listVersions(ctx, s.DB, projectID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.AdvisorInteractions, err = listInteractions(ctx, s.DB, projectID, models.InteractionFilter{}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.AdvisorMemory, err = loadMemory(ctx, s.DB, projectID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// UpdateProject locks the owner's project row, hands the current state to
// mutate and writes the result back. A version returned by mutate is
// appended with the next ordinal in the same transaction.
func (s *Storage) UpdateProject(ctx context.Context, ownerID, projectID string,
	mutate func(p *models.Project) (*models.Version, error)) (*models.Project, error) {
	const op = "storage.UpdateProject"
	if err := ctxDone(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !validID(ownerID, projectID) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
			projectID, ownerID)
		p, err := scanProject(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		snapshot, err := mutate(p)
		if err != nil {
			return err
		}
		if snapshot != nil {
			if _, err := insertVersion(ctx, tx, projectID, snapshot.Content, snapshot.Comment); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE projects
			 SET title = $1, description = $2, template = $3, genre = $4, target_audience = $5,
			     word_count_goal = $6, content = $7, current_word_count = $8,
			     auto_save = $9, advisor_panel_visible = $10, font_size = $11,
			     status = $12, updated_at = now()
			 WHERE id = $13`,
			p.Title, p.Description, p.Template, p.Genre, p.TargetAudience,
			nullInt(p.WordCountGoal), p.Content, p.CurrentWordCount,
			p.Settings.AutoSave, p.Settings.AdvisorPanelVisible, p.Settings.FontSize,
			p.Status, projectID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetProject(ctx, ownerID, projectID)
}

// DeleteProject removes the owner's project. Versions, interactions and
// memory go with it through the foreign keys.
func (s *Storage) DeleteProject(ctx context.Context, ownerID, projectID string) error {
	const op = "storage.DeleteProject"
	if err := ctxDone(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !validID(ownerID, projectID) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM projects WHERE id = $1 AND owner_id = $2`, projectID, ownerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
