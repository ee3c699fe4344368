package export

import (
	"context"
	"fmt"
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

func (m *MockService) Export(ctx context.Context, ownerID, projectID, format string) (*projectservice.ExportResult, error) {
	args := m.Called(ctx, ownerID, projectID, format)
	res, _ := args.Get(0).(*projectservice.ExportResult)
	return res, args.Error(1)
}

func TestExportHandler(t *testing.T) {
	tests := []struct {
		name                string
		format              string
		result              *projectservice.ExportResult
		err                 error
		expectedStatus      int
		expectedBody        string
		expectedType        string
		expectedDisposition string
	}{
		{
			name:                "text",
			format:              "txt",
			result:              &projectservice.ExportResult{Data: []byte("Call me Ishmael."), Filename: "Moby Dick.txt", MimeType: "text/plain"},
			expectedStatus:      http.StatusOK,
			expectedBody:        "Call me Ishmael.",
			expectedType:        "text/plain; charset=utf-8",
			expectedDisposition: `attachment; filename="Moby Dick.txt"`,
		},
		{
			name:                "markdown",
			format:              "markdown",
			result:              &projectservice.ExportResult{Data: []byte("<p>Hi</p>"), Filename: "Notes.md", MimeType: "text/markdown"},
			expectedStatus:      http.StatusOK,
			expectedBody:        "<p>Hi</p>",
			expectedType:        "text/markdown; charset=utf-8",
			expectedDisposition: `attachment; filename=Notes.md`,
		},
		{
			name:           "pdf",
			format:         "pdf",
			err:            fmt.Errorf("%w: %q", projectservice.ErrUnsupportedFormat, "pdf"),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Unsupported export format",
		},
		{
			name:           "missing project",
			format:         "txt",
			err:            projectservice.ErrProjectNotFound,
			expectedStatus: http.StatusNotFound,
			expectedBody:   "Project not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Export", mock.Anything, "user-1", "p-1", tt.format).Return(tt.result, tt.err).Once()

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "p-1")
			rctx.URLParams.Add("format", tt.format)
			req := httptest.NewRequest(http.MethodGet, "/api/projects/p-1/export/"+tt.format, nil)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithUser(ctx, &models.User{ID: "user-1"}))
			rr := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			if tt.expectedType != "" {
				assert.Equal(t, tt.expectedType, rr.Header().Get("Content-Type"))
				assert.Equal(t, tt.expectedDisposition, rr.Header().Get("Content-Disposition"))
			}
			svc.AssertExpectations(t)
		})
	}
}
