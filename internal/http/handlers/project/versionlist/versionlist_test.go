package versionlist

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

func (m *MockService) ListVersions(ctx context.Context, ownerID, projectID string) ([]models.Version, error) {
	args := m.Called(ctx, ownerID, projectID)
	v, _ := args.Get(0).([]models.Version)
	return v, args.Error(1)
}

func TestVersionListHandler(t *testing.T) {
	tests := []struct {
		name           string
		versions       []models.Version
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "history",
			versions:       []models.Version{{Number: 1, Comment: "Auto-save"}, {Number: 2, Comment: "Manual version"}},
			expectedStatus: http.StatusOK,
			expectedBody:   `"version":2`,
		},
		{name: "not found", err: projectservice.ErrProjectNotFound, expectedStatus: http.StatusNotFound, expectedBody: `Project not found`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("ListVersions", mock.Anything, "user-1", "p-1").Return(tt.versions, tt.err).Once()

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "p-1")
			req := httptest.NewRequest(http.MethodGet, "/api/projects/p-1/versions", nil)
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
