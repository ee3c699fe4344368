package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chrisminnick/starboard2/internal/advisor"
	"github.com/chrisminnick/starboard2/internal/models"
	services "github.com/chrisminnick/starboard2/internal/services/advisor"
	"github.com/chrisminnick/starboard2/internal/storage"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetProject(ctx context.Context, ownerID, projectID string) (*models.Project, error) {
	args := m.Called(ctx, ownerID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockRepository) AddInteraction(ctx context.Context, ownerID, projectID string,
	in models.Interaction, memory string) (*models.Interaction, error) {
	args := m.Called(ctx, ownerID, projectID, in, memory)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Interaction), args.Error(1)
}

func (m *MockRepository) ListInteractions(ctx context.Context, ownerID, projectID string,
	filter models.InteractionFilter) ([]models.Interaction, error) {
	args := m.Called(ctx, ownerID, projectID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Interaction), args.Error(1)
}

func (m *MockRepository) ResolveInteraction(ctx context.Context, ownerID, projectID, interactionID string) error {
	args := m.Called(ctx, ownerID, projectID, interactionID)
	return args.Error(0)
}

type MockAdvisor struct {
	mock.Mock
}

func (m *MockAdvisor) Chat(ctx context.Context, role models.Role, message string, project *models.Project) (string, error) {
	args := m.Called(ctx, role, message, project)
	return args.String(0), args.Error(1)
}

func (m *MockAdvisor) Feedback(ctx context.Context, role models.Role, project *models.Project) (models.Feedback, error) {
	args := m.Called(ctx, role, project)
	return args.Get(0).(models.Feedback), args.Error(1)
}

func (m *MockAdvisor) Comment(ctx context.Context, role models.Role, selectedText string, project *models.Project) (string, error) {
	args := m.Called(ctx, role, selectedText, project)
	return args.String(0), args.Error(1)
}

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) IndexProject(p *models.Project) {
	m.Called(p)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const (
	owner     = "owner-1"
	projectID = "project-1"
)

func project() *models.Project {
	return &models.Project{ID: projectID, OwnerID: owner, Title: "Moby Dick Retold", Template: models.TemplateNovel}
}

func TestAdvisorService_Chat(t *testing.T) {
	tests := []struct {
		name       string
		role       models.Role
		setupMocks func(r *MockRepository, a *MockAdvisor, c *MockInvalidator)
		wantReply  string
		wantErr    error
	}{
		{
			name: "reply persisted with memory",
			role: models.RoleEditor,
			setupMocks: func(r *MockRepository, a *MockAdvisor, c *MockInvalidator) {
				p := project()
				r.On("GetProject", mock.Anything, owner, projectID).Return(p, nil).Once()
				a.On("Chat", mock.Anything, models.RoleEditor, "How is the pacing?", p).Return("Tighten chapter two.", nil).Once()
				r.On("AddInteraction", mock.Anything, owner, projectID, models.Interaction{
					AdvisorRole:     models.RoleEditor,
					InteractionType: models.InteractionChat,
					Content:         "User: How is the pacing?\nAdvisor: Tighten chapter two.",
				}, "\nUser: How is the pacing?\nAdvisor: Tighten chapter two.").Return(&models.Interaction{ID: "i-1"}, nil).Once()
				c.On("Invalidate", mock.Anything, "projects:owner-1").Return(nil).Once()
			},
			wantReply: "Tighten chapter two.",
		},
		{
			name:       "unknown role",
			role:       "critic",
			setupMocks: func(_ *MockRepository, _ *MockAdvisor, _ *MockInvalidator) {},
			wantErr:    services.ErrInvalidRole,
		},
		{
			name: "foreign project",
			role: models.RoleReader,
			setupMocks: func(r *MockRepository, _ *MockAdvisor, _ *MockInvalidator) {
				r.On("GetProject", mock.Anything, owner, projectID).
					Return(nil, fmt.Errorf("storage.GetProject: %w", storage.ErrNotFound)).Once()
			},
			wantErr: services.ErrProjectNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, adv, inv := new(MockRepository), new(MockAdvisor), new(MockInvalidator)
			svc := services.NewAdvisorService(repo, adv, inv, newNoopLogger())
			tt.setupMocks(repo, adv, inv)

			reply, err := svc.Chat(context.Background(), owner, projectID, tt.role, "How is the pacing?")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantReply, reply)
			}
			repo.AssertExpectations(t)
			adv.AssertExpectations(t)
			inv.AssertExpectations(t)
		})
	}
}

func TestAdvisorService_ChatFallsBackWhenProviderFails(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("provider down"))
	adv, err := advisor.New(newNoopLogger(), completer, nil)
	require.NoError(t, err)
	persona, err := adv.Persona(models.RoleReader)
	require.NoError(t, err)

	p := project()
	want := persona.Fallback("Is it gripping?", p)

	repo := new(MockRepository)
	repo.On("GetProject", mock.Anything, owner, projectID).Return(p, nil).Once()
	repo.On("AddInteraction", mock.Anything, owner, projectID,
		mock.MatchedBy(func(in models.Interaction) bool {
			return in.InteractionType == models.InteractionChat &&
				in.Content == "User: Is it gripping?\nAdvisor: "+want
		}), mock.Anything).Return(&models.Interaction{ID: "i-1"}, nil).Once()

	svc := services.NewAdvisorService(repo, adv, nil, newNoopLogger())
	reply, err := svc.Chat(context.Background(), owner, projectID, models.RoleReader, "Is it gripping?")
	require.NoError(t, err)
	assert.Equal(t, want, reply)
	assert.NotEmpty(t, reply)
	repo.AssertExpectations(t)
}

func TestAdvisorService_StructuredFeedback(t *testing.T) {
	rating := 4
	feedback := models.Feedback{
		Overall: "Strong opening.",
		Categories: models.FeedbackCategories{
			Strengths:    []string{"voice"},
			Improvements: []string{},
			Suggestions:  []string{"cut the prologue"},
		},
		Rating: &rating,
	}

	repo, adv := new(MockRepository), new(MockAdvisor)
	p := project()
	repo.On("GetProject", mock.Anything, owner, projectID).Return(p, nil).Once()
	adv.On("Feedback", mock.Anything, models.RoleEditor, p).Return(feedback, nil).Once()
	repo.On("AddInteraction", mock.Anything, owner, projectID,
		mock.MatchedBy(func(in models.Interaction) bool {
			var stored models.Feedback
			if err := json.Unmarshal([]byte(in.Content), &stored); err != nil {
				return false
			}
			return in.InteractionType == models.InteractionStructuredFeedback &&
				stored.Overall == feedback.Overall && *stored.Rating == 4
		}), "").Return(&models.Interaction{ID: "i-2"}, nil).Once()

	svc := services.NewAdvisorService(repo, adv, nil, newNoopLogger())
	got, err := svc.StructuredFeedback(context.Background(), owner, projectID, models.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, feedback, *got)
	repo.AssertExpectations(t)
}

func TestAdvisorService_InlineComment(t *testing.T) {
	repo, adv := new(MockRepository), new(MockAdvisor)
	p := project()
	pos := &models.Position{Start: 0, End: 16}
	created := &models.Interaction{ID: "i-3", Content: "Comma splice.", Position: pos}

	repo.On("GetProject", mock.Anything, owner, projectID).Return(p, nil).Once()
	adv.On("Comment", mock.Anything, models.RoleCopyEditor, "Call me Ishmael.", p).Return("Comma splice.", nil).Once()
	repo.On("AddInteraction", mock.Anything, owner, projectID, models.Interaction{
		AdvisorRole:     models.RoleCopyEditor,
		InteractionType: models.InteractionInlineComment,
		Content:         "Comma splice.",
		Position:        pos,
	}, "").Return(created, nil).Once()

	svc := services.NewAdvisorService(repo, adv, nil, newNoopLogger())
	comment, in, err := svc.InlineComment(context.Background(), owner, projectID, models.RoleCopyEditor, "Call me Ishmael.", pos)
	require.NoError(t, err)
	assert.Equal(t, "Comma splice.", comment)
	assert.Equal(t, "i-3", in.ID)
	repo.AssertExpectations(t)
}

func TestAdvisorService_ListInteractions(t *testing.T) {
	unresolved := false
	filter := models.InteractionFilter{Role: models.RoleEditor, Resolved: &unresolved}

	repo := new(MockRepository)
	repo.On("ListInteractions", mock.Anything, owner, projectID, filter).Return(nil, nil).Once()
	svc := services.NewAdvisorService(repo, new(MockAdvisor), nil, newNoopLogger())

	got, err := svc.ListInteractions(context.Background(), owner, projectID, filter)
	require.NoError(t, err)
	assert.NotNil(t, got)

	_, err = svc.ListInteractions(context.Background(), owner, projectID, models.InteractionFilter{Role: "critic"})
	assert.ErrorIs(t, err, services.ErrInvalidRole)
	repo.AssertExpectations(t)
}

func TestAdvisorService_ResolveInteraction(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ResolveInteraction", mock.Anything, owner, projectID, "i-1").Return(nil).Twice()
	repo.On("ResolveInteraction", mock.Anything, owner, projectID, "missing").
		Return(fmt.Errorf("storage.ResolveInteraction: %w", storage.ErrNotFound)).Once()
	svc := services.NewAdvisorService(repo, new(MockAdvisor), nil, newNoopLogger())

	require.NoError(t, svc.ResolveInteraction(context.Background(), owner, projectID, "i-1"))
	require.NoError(t, svc.ResolveInteraction(context.Background(), owner, projectID, "i-1"))
	assert.ErrorIs(t, svc.ResolveInteraction(context.Background(), owner, projectID, "missing"), services.ErrInteractionNotFound)
	repo.AssertExpectations(t)
}

func TestAdvisorService_RecordRefreshesSearchIndex(t *testing.T) {
	repo, adv, index := new(MockRepository), new(MockAdvisor), new(MockIndexer)
	p := project()
	touched := project()
	repo.On("GetProject", mock.Anything, owner, projectID).Return(p, nil).Once()
	adv.On("Comment", mock.Anything, models.RoleEditor, "Call me Ishmael.", p).Return("Strong hook.", nil).Once()
	repo.On("AddInteraction", mock.Anything, owner, projectID, mock.Anything, "").
		Return(&models.Interaction{ID: "i-4"}, nil).Once()
	repo.On("GetProject", mock.Anything, owner, projectID).Return(touched, nil).Once()
	index.On("IndexProject", touched).Once()

	svc := services.NewAdvisorService(repo, adv, nil, newNoopLogger()).WithSearchIndex(index)
	_, _, err := svc.InlineComment(context.Background(), owner, projectID, models.RoleEditor, "Call me Ishmael.", nil)
	require.NoError(t, err)
	repo.AssertExpectations(t)
	index.AssertExpectations(t)
}
