package update

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/chrisminnick/starboard2/internal/http/middlewarectx"
	"github.com/chrisminnick/starboard2/internal/models"
	projectservice "github.com/chrisminnick/starboard2/internal/services/project"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Update(ctx context.Context, ownerID, projectID string, patch models.ProjectPatch) (*models.Project, error) {
	args := m.Called(ctx, ownerID, projectID, patch)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func TestUpdateHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "content change",
			body: `{"content":"<p>one two three</p>"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, "user-1", "p-1", mock.MatchedBy(func(p models.ProjectPatch) bool {
					return p.Content != nil && *p.Content == "<p>one two three</p>" && p.Title == nil
				})).Return(&models.Project{ID: "p-1", CurrentWordCount: 3}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"currentWordCount":3`,
		},
		{
			name:           "bad status",
			body:           `{"status":"published"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `status must be one of`,
		},
		{
			name:           "font size out of range",
			body:           `{"settings":{"fontSize":40}}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `must be at most 24`,
		},
		{
			name: "missing project",
			body: `{"title":"New"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, "user-1", "p-1", mock.Anything).
					Return(nil, projectservice.ErrProjectNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `Project not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "p-1")
			req := httptest.NewRequest(http.MethodPatch, "/api/projects/p-1", strings.NewReader(tt.body))
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithUser(ctx, &models.User{ID: "user-1"}))
			rr := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
