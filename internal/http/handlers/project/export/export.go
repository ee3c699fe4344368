// Package export sends a project as a downloadable file.
package export

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/chrisminnick/starboard2/internal/http/middlewarectx"
	"github.com/chrisminnick/starboard2/internal/http/response"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	projectservice "github.com/chrisminnick/starboard2/internal/services/project"
)

// Handler serves GET /api/projects/{id}/export/{format}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service renders exports.
type Service interface {
	Export(ctx context.Context, ownerID, projectID, format string) (*projectservice.ExportResult, error)
}

// New returns a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Export project
// @Description markdown returns the stored content, txt strips the markup.
// @Tags Projects
// @Produce  plain
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param format path string true "Export format" Enums(markdown, txt)
// @Success 200 {file} file "Attachment"
// @Failure 400 {object} response.ErrorResponse "Unsupported format"
// @Failure 404 {object} response.ErrorResponse "Project not found"
// @Router /projects/{id}/export/{format} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.project.export"
	id := chi.URLParam(r, "id")
	format := chi.URLParam(r, "format")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("project_id", id),
		slog.String("format", format),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.Export(r.Context(), user.ID, id, format)
	switch {
	case errors.Is(err, projectservice.ErrUnsupportedFormat):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Unsupported export format"))
		return
	case errors.Is(err, projectservice.ErrProjectNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Project not found"))
		return
	case err != nil:
		log.Error("failed to export project", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not export project"))
		return
	}

	w.Header().Set("Content-Type", result.MimeType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		log.Error("failed to write export", sl.Err(err))
	}
}
