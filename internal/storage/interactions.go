package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/chrisminnick/starboard2/internal/models"
)

const interactionColumns = `id, advisor_role, interaction_type, content, position_start, position_end,
	resolved, created_at`

func scanInteraction(row interface{ Scan(...any) error }) (models.Interaction, error) {
	var (
		i          models.Interaction
		start, end sql.NullInt64
	)
	err := row.Scan(&i.ID, &i.AdvisorRole, &i.InteractionType, &i.Content, &start, &end,
		&i.Resolved, &i.CreatedAt)
	if err != nil {
		return i, err
	}
	if start.Valid && end.Valid {
		i.Position = &models.Position{Start: int(start.Int64), End: int(end.Int64)}
	}
	return i, nil
}

func listInteractions(ctx context.Context, q querier, projectID string, filter models.InteractionFilter) ([]models.Interaction, error) {
	var (
		sb   strings.Builder
		args = []any{projectID}
	)
	sb.WriteString(`SELECT ` + interactionColumns + ` FROM advisor_interactions WHERE project_id = $1`)
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		sb.WriteString(` AND advisor_role = $` + strconv.Itoa(len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		sb.WriteString(` AND interaction_type = $` + strconv.Itoa(len(args)))
	}
	if filter.Resolved != nil {
		args = append(args, *filter.Resolved)
		sb.WriteString(` AND resolved = $` + strconv.Itoa(len(args)))
	}
	sb.WriteString(` ORDER BY created_at, id`)

	rows, err := q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Interaction{}
	for rows.Next() {
		item, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func loadMemory(ctx context.Context, q querier, projectID string) (models.AdvisorMemory, error) {
	var memory models.AdvisorMemory
	rows, err := q.QueryContext(ctx,
		`SELECT role, transcript FROM advisor_memory WHERE project_id = $1`, projectID)
	if err != nil {
		return memory, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			role       models.Role
			transcript string
		)
		if err := rows.Scan(&role, &transcript); err != nil {
			return memory, err
		}
		switch role {
		case models.RoleEditor:
			memory.Editor = transcript
		case models.RoleCopyEditor:
			memory.CopyEditor = transcript
		case models.RoleReader:
			memory.Reader = transcript
		}
	}
	return memory, rows.Err()
}

// AddInteraction stores an advisor interaction on the owner's project. A
// non-empty memory is appended to the role's transcript in the same
// transaction.
func (s *Storage) AddInteraction(ctx context.Context, ownerID, projectID string,
	in models.Interaction, memory string) (*models.Interaction, error) {
	const op = "storage.AddInteraction"
	if err := ctxDone(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !validID(ownerID, projectID) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var created models.Interaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockProject(ctx, tx, ownerID, projectID); err != nil {
			return err
		}

		var start, end sql.NullInt64
		if in.Position != nil {
			start = sql.NullInt64{Int64: int64(in.Position.Start), Valid: true}
			end = sql.NullInt64{Int64: int64(in.Position.End), Valid: true}
		}
		row := tx.QueryRowContext(ctx,
			`INSERT INTO advisor_interactions
			     (id, project_id, advisor_role, interaction_type, content, position_start, position_end)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+interactionColumns,
			uuid.NewString(), projectID, string(in.AdvisorRole), string(in.InteractionType),
			in.Content, start, end)
		var err error
		if created, err = scanInteraction(row); err != nil {
			return err
		}

		if memory != "" {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO advisor_memory (project_id, role, transcript)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (project_id, role)
				 DO UPDATE SET transcript = advisor_memory.transcript || EXCLUDED.transcript`,
				projectID, string(in.AdvisorRole), memory)
			if err != nil {
				return err
			}
		}
		return touchProject(ctx, tx, projectID)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &created, nil
}

// ListInteractions returns the interactions of the owner's project that pass
// filter, oldest first.
func (s *Storage) ListInteractions(ctx context.Context, ownerID, projectID string,
	filter models.InteractionFilter) ([]models.Interaction, error) {
	const op = "storage.ListInteractions"
	if err := ctxDone(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !validID(ownerID, projectID) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err := ownsProject(ctx, s.DB, ownerID, projectID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result, err := listInteractions(ctx, s.DB, projectID, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ResolveInteraction marks an interaction resolved. Resolving twice is not an
// error.
func (s *Storage) ResolveInteraction(ctx context.Context, ownerID, projectID, interactionID string) error {
	const op = "storage.ResolveInteraction"
	if err := ctxDone(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !validID(ownerID, projectID, interactionID) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE advisor_interactions ai
		 SET resolved = TRUE
		 FROM projects p
		 WHERE ai.id = $1 AND ai.project_id = $2
		   AND p.id = ai.project_id AND p.owner_id = $3`,
		interactionID, projectID, ownerID)
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
