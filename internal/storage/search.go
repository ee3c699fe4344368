package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/chrisminnick/starboard2/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchProjects matches query against the owner's project titles,
// descriptions and genres, case-insensitively.
func (s *Storage) SearchProjects(ctx context.Context, ownerID, query string, limit int) ([]models.ProjectSummary, error) {
	const op = "storage.SearchProjects"
	if err := ctxDone(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !validID(ownerID) {
		return []models.ProjectSummary{}, nil
	}

	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(query)) + "%"
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+summaryColumns+`
		 FROM projects
		 WHERE owner_id = $1
		   AND (title ILIKE $2 OR description ILIKE $2 OR genre ILIKE $2)
		 ORDER BY updated_at DESC
		 LIMIT $3`,
		ownerID, pattern, limit)
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
