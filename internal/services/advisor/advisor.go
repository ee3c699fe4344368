// Package services runs advisor conversations against a stored project and
// records every exchange as an interaction.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chrisminnick/starboard2/internal/advisor"
	"github.com/chrisminnick/starboard2/internal/cache"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/models"
	"github.com/chrisminnick/starboard2/internal/storage"
)

var (
	// ErrProjectNotFound covers both a missing project and one owned by someone else.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInteractionNotFound is returned when resolving an unknown interaction.
	ErrInteractionNotFound = errors.New("interaction not found")
	// ErrInvalidRole is returned for a role outside the three personas.
	ErrInvalidRole = errors.New("invalid advisor role")
)

// Repository is the part of the store the advisors write to.
type Repository interface {
	GetProject(ctx context.Context, ownerID, projectID string) (*models.Project, error)
	AddInteraction(ctx context.Context, ownerID, projectID string,
		in models.Interaction, memory string) (*models.Interaction, error)
	ListInteractions(ctx context.Context, ownerID, projectID string,
		filter models.InteractionFilter) ([]models.Interaction, error)
	ResolveInteraction(ctx context.Context, ownerID, projectID, interactionID string) error
}

// Advisor produces persona replies. *advisor.Advisor implements it.
type Advisor interface {
	Chat(ctx context.Context, role models.Role, message string, project *models.Project) (string, error)
	Feedback(ctx context.Context, role models.Role, project *models.Project) (models.Feedback, error)
	Comment(ctx context.Context, role models.Role, selectedText string, project *models.Project) (string, error)
}

// Invalidator drops cached keys.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// Indexer refreshes a project's search document.
type Indexer interface {
	IndexProject(p *models.Project)
}

// AdvisorService ties persona replies to the owner's project.
type AdvisorService struct {
	repo    Repository
	advisor Advisor
	cache   Invalidator
	index   Indexer
	log     *slog.Logger
}

// NewAdvisorService returns an AdvisorService. cache may be nil.
func NewAdvisorService(repo Repository, adv Advisor, cache Invalidator, log *slog.Logger) *AdvisorService {
	return &AdvisorService{
		repo:    repo,
		advisor: adv,
		cache:   cache,
		log:     log,
	}
}

// WithSearchIndex makes recorded interactions refresh the project's search
// document.
func (s *AdvisorService) WithSearchIndex(index Indexer) *AdvisorService {
	s.index = index
	return s
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrProjectNotFound
	case errors.Is(err, advisor.ErrUnknownRole):
		return ErrInvalidRole
	}
	return err
}

func (s *AdvisorService) project(ctx context.Context, ownerID, projectID string, role models.Role) (*models.Project, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	p, err := s.repo.GetProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

// record stores the interaction. The project's updatedAt moves with it, so
// the owner's cached listing and its search document go stale.
func (s *AdvisorService) record(ctx context.Context, ownerID, projectID string, in models.Interaction, memory string) (*models.Interaction, error) {
	created, err := s.repo.AddInteraction(ctx, ownerID, projectID, in, memory)
	if err != nil {
		return nil, mapErr(err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, cache.ProjectListKey(ownerID)); err != nil {
			s.log.Warn("failed to invalidate cache", sl.Err(err))
		}
	}
	if s.index != nil {
		p, err := s.repo.GetProject(ctx, ownerID, projectID)
		if err != nil {
			s.log.Warn("failed to reload project for indexing", slog.String("project_id", projectID), sl.Err(err))
		} else {
			s.index.IndexProject(p)
		}
	}
	return created, nil
}

// Chat sends message to the role and appends the exchange to the role's
// memory transcript.
func (s *AdvisorService) Chat(ctx context.Context, ownerID, projectID string, role models.Role, message string) (string, error) {
	const op = "services.advisor.Chat"
	p, err := s.project(ctx, ownerID, projectID, role)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	reply, err := s.advisor.Chat(ctx, role, message, p)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapErr(err))
	}

	exchange := fmt.Sprintf("User: %s\nAdvisor: %s", message, reply)
	in := models.Interaction{
		AdvisorRole:     role,
		InteractionType: models.InteractionChat,
		Content:         exchange,
	}
	if _, err := s.record(ctx, ownerID, projectID, in, "\n"+exchange); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return reply, nil
}

// StructuredFeedback asks the role to review the whole project.
func (s *AdvisorService) StructuredFeedback(ctx context.Context, ownerID, projectID string, role models.Role) (*models.Feedback, error) {
	const op = "services.advisor.StructuredFeedback"
	p, err := s.project(ctx, ownerID, projectID, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	feedback, err := s.advisor.Feedback(ctx, role, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	encoded, err := json.Marshal(feedback)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	in := models.Interaction{
		AdvisorRole:     role,
		InteractionType: models.InteractionStructuredFeedback,
		Content:         string(encoded),
	}
	if _, err := s.record(ctx, ownerID, projectID, in, ""); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &feedback, nil
}

// InlineComment asks the role about selectedText and stores the comment at
// position.
func (s *AdvisorService) InlineComment(ctx context.Context, ownerID, projectID string, role models.Role,
	selectedText string, position *models.Position) (string, *models.Interaction, error) {
	const op = "services.advisor.InlineComment"
	p, err := s.project(ctx, ownerID, projectID, role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	comment, err := s.advisor.Comment(ctx, role, selectedText, p)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	in := models.Interaction{
		AdvisorRole:     role,
		InteractionType: models.InteractionInlineComment,
		Content:         comment,
		Position:        position,
	}
	created, err := s.record(ctx, ownerID, projectID, in, "")
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return comment, created, nil
}

// ListInteractions returns the project's interactions passing filter.
func (s *AdvisorService) ListInteractions(ctx context.Context, ownerID, projectID string,
	filter models.InteractionFilter) ([]models.Interaction, error) {
	const op = "services.advisor.ListInteractions"
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, ErrInvalidRole
	}
	list, err := s.repo.ListInteractions(ctx, ownerID, projectID, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err))
	}
	if list == nil {
		list = []models.Interaction{}
	}
	return list, nil
}

// ResolveInteraction marks the interaction resolved. Repeating it is a no-op.
func (s *AdvisorService) ResolveInteraction(ctx context.Context, ownerID, projectID, interactionID string) error {
	const op = "services.advisor.ResolveInteraction"
	err := s.repo.ResolveInteraction(ctx, ownerID, projectID, interactionID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrInteractionNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
