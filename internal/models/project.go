package models

import (
	"time"

	"github.com/chrisminnick/starboard2/internal/lib/prose"
)

// Project templates.
const (
	TemplateNovel      = "novel"
	TemplateBlog       = "blog"
	TemplateResearch   = "research"
	TemplateScreenplay = "screenplay"
	TemplateCustom     = "custom"
)

// Project statuses.
const (
	StatusDraft     = "draft"
	StatusReview    = "review"
	StatusCompleted = "completed"
	StatusArchived  = "archived"
)

// Version comments used when the caller does not provide one.
const (
	AutoSaveComment = "Auto-save version"
	ManualComment   = "Manual version"
)

// Project is a writing project together with its history and advisor log.
type Project struct {
	ID                  string        `json:"id"`
	OwnerID             string        `json:"userId"`
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	Template            string        `json:"template"`
	Genre               string        `json:"genre"`
	TargetAudience      string        `json:"targetAudience"`
	WordCountGoal       *int          `json:"wordCountGoal,omitempty"`
	Content             string        `json:"content"`
	CurrentWordCount    int           `json:"currentWordCount"`
	Settings            Settings      `json:"settings"`
	Status              string        `json:"status"`
	AdvisorMemory       AdvisorMemory `json:"advisorMemory"`
	Versions            []Version     `json:"versions"`
	AdvisorInteractions []Interaction `json:"advisorInteractions"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
}

// Settings are the editor settings stored with a project. The client always
// sends the whole object.
type Settings struct {
	AutoSave            bool `json:"autoSave"`
	AdvisorPanelVisible bool `json:"advisorPanelVisible"`
	FontSize            int  `json:"fontSize" validate:"min=12,max=24"`
}

// AdvisorMemory is the running chat transcript kept per advisor.
type AdvisorMemory struct {
	Editor     string `json:"editor"`
	CopyEditor string `json:"copyeditor"`
	Reader     string `json:"reader"`
}

// Version is an immutable snapshot of project content.
type Version struct {
	ID        string    `json:"id"`
	Number    int       `json:"version"`
	Content   string    `json:"content"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProjectSummary is the listing view of a project.
type ProjectSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Template         string    `json:"template"`
	Status           string    `json:"status"`
	CurrentWordCount int       `json:"currentWordCount"`
	WordCountGoal    *int      `json:"wordCountGoal,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewProject carries the fields accepted at creation.
type NewProject struct {
	Title          string `json:"title" validate:"required,max=200"`
	Description    string `json:"description" validate:"max=1000"`
	Template       string `json:"template" validate:"omitempty,oneof=novel blog research screenplay custom"`
	Genre          string `json:"genre"`
	TargetAudience string `json:"targetAudience"`
	WordCountGoal  *int   `json:"wordCountGoal" validate:"omitempty,min=0"`
}

// ProjectPatch is a partial update. Nil fields are not touched.
type ProjectPatch struct {
	Title          *string   `json:"title" validate:"omitempty,max=200"`
	Description    *string   `json:"description" validate:"omitempty,max=1000"`
	Template       *string   `json:"template" validate:"omitempty,oneof=novel blog research screenplay custom"`
	Genre          *string   `json:"genre"`
	TargetAudience *string   `json:"targetAudience"`
	WordCountGoal  *int      `json:"wordCountGoal" validate:"omitempty,min=0"`
	Content        *string   `json:"content"`
	Settings       *Settings `json:"settings"`
	Status         *string   `json:"status" validate:"omitempty,oneof=draft review completed archived"`
}

// DefaultSettings returns the settings of a new project.
func DefaultSettings() Settings {
	return Settings{
		AutoSave:            true,
		AdvisorPanelVisible: true,
		FontSize:            16,
	}
}

// Build turns creation fields into a project owned by ownerID.
func (n NewProject) Build(ownerID string, now time.Time) Project {
	template := n.Template
	if template == "" {
		template = TemplateCustom
	}
	now = now.UTC()
	return Project{
		OwnerID:             ownerID,
		Title:               n.Title,
		Description:         n.Description,
		Template:            template,
		Genre:               n.Genre,
		TargetAudience:      n.TargetAudience,
		WordCountGoal:       n.WordCountGoal,
		Settings:            DefaultSettings(),
		Status:              StatusDraft,
		Versions:            []Version{},
		AdvisorInteractions: []Interaction{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Apply merges the patch into the project. When the patch changes the
// content, the content being replaced is returned as a version snapshot that
// must be stored before the update; its number is assigned by storage.
func (p *Project) Apply(patch ProjectPatch) *Version {
	var snapshot *Version
	if patch.Content != nil && *patch.Content != p.Content {
		snapshot = &Version{Content: p.Content, Comment: AutoSaveComment}
		p.Content = *patch.Content
	}
	p.CurrentWordCount = prose.WordCount(p.Content)

	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Template != nil {
		p.Template = *patch.Template
	}
	if patch.Genre != nil {
		p.Genre = *patch.Genre
	}
	if patch.TargetAudience != nil {
		p.TargetAudience = *patch.TargetAudience
	}
	if patch.WordCountGoal != nil {
		p.WordCountGoal = patch.WordCountGoal
	}
	if patch.Settings != nil {
		p.Settings = *patch.Settings
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	return snapshot
}

// Summary returns the listing view of p.
func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{
		ID:               p.ID,
		Title:            p.Title,
		Description:      p.Description,
		Template:         p.Template,
		Status:           p.Status,
		CurrentWordCount: p.CurrentWordCount,
		WordCountGoal:    p.WordCountGoal,
		UpdatedAt:        p.UpdatedAt,
	}
}
