// Package search finds projects by title, description and genre. Meilisearch
// answers when it is configured and healthy; Postgres answers otherwise.
package search

import (
	"time"

	"github.com/chrisminnick/starboard2/internal/models"
)

// DefaultLimit caps the number of results when the query does not.
const DefaultLimit = 20

// Query is one search request, always scoped to an owner.
type Query struct {
	OwnerID string
	Text    string
	Limit   int
}

// Response is what the search endpoint returns.
type Response struct {
	Results []models.ProjectSummary `json:"results"`
	Total   int                     `json:"total"`
	Query   string                  `json:"query"`
}

// ProjectRecord is the document stored in the search index.
type ProjectRecord struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"ownerId"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Genre            string    `json:"genre"`
	Template         string    `json:"template"`
	Status           string    `json:"status"`
	CurrentWordCount int       `json:"currentWordCount"`
	WordCountGoal    *int      `json:"wordCountGoal,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// RecordFromProject builds the index document for p.
func RecordFromProject(p *models.Project) ProjectRecord {
	return ProjectRecord{
		ID:               p.ID,
		OwnerID:          p.OwnerID,
		Title:            p.Title,
		Description:      p.Description,
		Genre:            p.Genre,
		Template:         p.Template,
		Status:           p.Status,
		CurrentWordCount: p.CurrentWordCount,
		WordCountGoal:    p.WordCountGoal,
		UpdatedAt:        p.UpdatedAt,
	}
}

// Summary converts the record back to the listing view.
func (r ProjectRecord) Summary() models.ProjectSummary {
	return models.ProjectSummary{
		ID:               r.ID,
		Title:            r.Title,
		Description:      r.Description,
		Template:         r.Template,
		Status:           r.Status,
		CurrentWordCount: r.CurrentWordCount,
		WordCountGoal:    r.WordCountGoal,
		UpdatedAt:        r.UpdatedAt,
	}
}
