package read

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
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

func (m *MockService) Get(ctx context.Context, ownerID, projectID string) (*models.Project, error) {
	args := m.Called(ctx, ownerID, projectID)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "found",
			id:   "p-1",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, "user-1", "p-1").
					Return(&models.Project{ID: "p-1", Content: "<p>Call me Ishmael.</p>"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `Call me Ishmael.`,
		},
		{
			name: "someone else's project",
			id:   "p-2",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, "user-1", "p-2").
					Return(nil, projectservice.ErrProjectNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"Project not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req := httptest.NewRequest(http.MethodGet, "/api/projects/"+tt.id, nil)
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
