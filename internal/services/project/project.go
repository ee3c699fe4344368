// Package services holds the project business logic: ownership-scoped CRUD,
// version history, exports and search, with the per-owner listing cached.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chrisminnick/starboard2/internal/cache"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/models"
	"github.com/chrisminnick/starboard2/internal/objectstore"
	"github.com/chrisminnick/starboard2/internal/search"
	"github.com/chrisminnick/starboard2/internal/storage"
)

// listTTL bounds how long a cached listing can outlive a missed invalidation.
const listTTL = 10 * time.Minute

var (
	// ErrProjectNotFound covers both a missing project and one owned by someone else.
	ErrProjectNotFound = errors.New("project not found")
	// ErrEmptyTitle is returned when the trimmed title is empty.
	ErrEmptyTitle = errors.New("title is required")
	// ErrEmptyQuery is returned by Search for a blank query.
	ErrEmptyQuery = errors.New("search query is required")
)

// ProjectRepository is the project part of the store.
type ProjectRepository interface {
	CreateProject(ctx context.Context, p models.Project) (*models.Project, error)
	ListProjects(ctx context.Context, ownerID string) ([]models.ProjectSummary, error)
	GetProject(ctx context.Context, ownerID, projectID string) (*models.Project, error)
	UpdateProject(ctx context.Context, ownerID, projectID string,
		mutate func(p *models.Project) (*models.Version, error)) (*models.Project, error)
	DeleteProject(ctx context.Context, ownerID, projectID string) error
	ListVersions(ctx context.Context, ownerID, projectID string) ([]models.Version, error)
	CreateVersion(ctx context.Context, ownerID, projectID, comment string) (*models.Version, error)
}

// Cache stores JSON values by key.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Searcher finds projects and keeps the index in step with writes.
type Searcher interface {
	Search(ctx context.Context, q search.Query) search.Response
	IndexProject(p *models.Project)
	DeleteProject(id string)
}

// ArchiveStore keeps exported files.
type ArchiveStore interface {
	Upload(ctx context.Context, key, filename, contentType string, data []byte) (*objectstore.Object, error)
}

// ProjectService implements the project operations for an authenticated owner.
type ProjectService struct {
	repo     ProjectRepository
	cache    Cache
	searcher Searcher
	archive  ArchiveStore
	log      *slog.Logger
	now      func() time.Time
}

// NewProjectService returns a ProjectService. cache and archive may be nil:
// listings are then read straight from repo and Archive is disabled.
func NewProjectService(repo ProjectRepository, cache Cache, searcher Searcher, archive ArchiveStore, log *slog.Logger) *ProjectService {
	return &ProjectService{
		repo:     repo,
		cache:    cache,
		searcher: searcher,
		archive:  archive,
		log:      log,
		now:      time.Now,
	}
}

func notFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrProjectNotFound
	}
	return err
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func (s *ProjectService) invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	key := cache.ProjectListKey(ownerID)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", key), sl.Err(err))
	}
}

// List returns the owner's summaries, newest update first.
func (s *ProjectService) List(ctx context.Context, ownerID string) ([]models.ProjectSummary, error) {
	const op = "services.project.List"
	key := cache.ProjectListKey(ownerID)
	if s.cache != nil {
		var cached []models.ProjectSummary
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("failed to read cache", slog.String("key", key), sl.Err(err))
		}
		if found {
			return cached, nil
		}
	}

	projects, err := s.repo.ListProjects(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if projects == nil {
		projects = []models.ProjectSummary{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, projects, listTTL); err != nil {
			s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
		}
	}
	return projects, nil
}

// Get returns the full project.
func (s *ProjectService) Get(ctx context.Context, ownerID, projectID string) (*models.Project, error) {
	const op = "services.project.Get"
	p, err := s.repo.GetProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return p, nil
}

// Create stores a new draft project for the owner.
func (s *ProjectService) Create(ctx context.Context, ownerID string, fields models.NewProject) (*models.Project, error) {
	const op = "services.project.Create"
	fields.Title = strings.TrimSpace(fields.Title)
	if fields.Title == "" {
		return nil, ErrEmptyTitle
	}
	fields.Description = strings.TrimSpace(fields.Description)
	fields.Genre = strings.TrimSpace(fields.Genre)
	fields.TargetAudience = strings.TrimSpace(fields.TargetAudience)

	created, err := s.repo.CreateProject(ctx, fields.Build(ownerID, s.now()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	s.log.Info("created project", slog.String("project_id", created.ID))

	s.invalidate(ctx, ownerID)
	s.searcher.IndexProject(created)
	return created, nil
}

// Update applies patch. A content change first snapshots the stored content
// as an auto-save version.
func (s *ProjectService) Update(ctx context.Context, ownerID, projectID string, patch models.ProjectPatch) (*models.Project, error) {
	const op = "services.project.Update"
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		patch.Title = &title
	}
	patch.Description = trimmed(patch.Description)
	patch.Genre = trimmed(patch.Genre)
	patch.TargetAudience = trimmed(patch.TargetAudience)

	updated, err := s.repo.UpdateProject(ctx, ownerID, projectID, func(p *models.Project) (*models.Version, error) {
		return p.Apply(patch), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}

	s.invalidate(ctx, ownerID)
	s.searcher.IndexProject(updated)
	return updated, nil
}

// Delete removes the project with its history.
func (s *ProjectService) Delete(ctx context.Context, ownerID, projectID string) error {
	const op = "services.project.Delete"
	if err := s.repo.DeleteProject(ctx, ownerID, projectID); err != nil {
		return fmt.Errorf("%s: %w", op, notFound(err))
	}
	s.log.Info("deleted project", slog.String("project_id", projectID))

	s.invalidate(ctx, ownerID)
	s.searcher.DeleteProject(projectID)
	return nil
}

// ListVersions returns the project's versions in ordinal order.
func (s *ProjectService) ListVersions(ctx context.Context, ownerID, projectID string) ([]models.Version, error) {
	const op = "services.project.ListVersions"
	versions, err := s.repo.ListVersions(ctx, ownerID, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	if versions == nil {
		versions = []models.Version{}
	}
	return versions, nil
}

// CreateVersion snapshots the current content. An empty comment becomes
// "Manual version".
func (s *ProjectService) CreateVersion(ctx context.Context, ownerID, projectID, comment string) (*models.Version, error) {
	const op = "services.project.CreateVersion"
	comment = strings.TrimSpace(comment)
	if comment == "" {
		comment = models.ManualComment
	}

	v, err := s.repo.CreateVersion(ctx, ownerID, projectID, comment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	s.invalidate(ctx, ownerID)
	s.reindex(ctx, ownerID, projectID)
	return v, nil
}

// reindex pushes the stored project to the search index after a write that
// only moved its updatedAt.
func (s *ProjectService) reindex(ctx context.Context, ownerID, projectID string) {
	p, err := s.repo.GetProject(ctx, ownerID, projectID)
	if err != nil {
		s.log.Warn("failed to reload project for indexing", slog.String("project_id", projectID), sl.Err(err))
		return
	}
	s.searcher.IndexProject(p)
}

// Search looks the text up in the owner's projects.
func (s *ProjectService) Search(ctx context.Context, ownerID, text string, limit int) (*search.Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	resp := s.searcher.Search(ctx, search.Query{OwnerID: ownerID, Text: text, Limit: limit})
	return &resp, nil
}
