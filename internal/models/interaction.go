package models

import "time"

// Role names one of the three advisor personas.
type Role string

// Advisor roles.
const (
	RoleEditor     Role = "editor"
	RoleCopyEditor Role = "copyeditor"
	RoleReader     Role = "reader"
)

// Roles lists every advisor in display order.
var Roles = []Role{RoleEditor, RoleCopyEditor, RoleReader}

// Valid reports whether r is one of the known personas.
func (r Role) Valid() bool {
	switch r {
	case RoleEditor, RoleCopyEditor, RoleReader:
		return true
	}
	return false
}

// InteractionType is the kind of advisor exchange.
type InteractionType string

// Interaction types.
const (
	InteractionChat               InteractionType = "chat"
	InteractionInlineComment      InteractionType = "inline_comment"
	InteractionStructuredFeedback InteractionType = "structured_feedback"
)

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionChat, InteractionInlineComment, InteractionStructuredFeedback:
		return true
	}
	return false
}

// Position is a character range in the project content.
type Position struct {
	Start int `json:"start" validate:"min=0"`
	End   int `json:"end" validate:"min=0,gtefield=Start"`
}

// Interaction is one persisted advisor exchange. Only Resolved ever changes.
type Interaction struct {
	ID              string          `json:"id"`
	AdvisorRole     Role            `json:"advisorRole"`
	InteractionType InteractionType `json:"interactionType"`
	Content         string          `json:"content"`
	Position        *Position       `json:"position,omitempty"`
	Resolved        bool            `json:"resolved"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// InteractionFilter narrows an interaction listing. Zero values match all.
type InteractionFilter struct {
	Role     Role
	Type     InteractionType
	Resolved *bool
}

// Match reports whether i passes the filter.
func (f InteractionFilter) Match(i Interaction) bool {
	if f.Role != "" && i.AdvisorRole != f.Role {
		return false
	}
	if f.Type != "" && i.InteractionType != f.Type {
		return false
	}
	if f.Resolved != nil && i.Resolved != *f.Resolved {
		return false
	}
	return true
}

// Feedback is the structured feedback object returned by an advisor.
type Feedback struct {
	Overall    string             `json:"overall"`
	Categories FeedbackCategories `json:"categories"`
	Rating     *int               `json:"rating"`
}

// FeedbackCategories groups feedback bullet points.
type FeedbackCategories struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Suggestions  []string `json:"suggestions"`
}
