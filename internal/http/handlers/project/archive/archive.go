// Package archive uploads an export to object storage.
package archive

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/chrisminnick/starboard2/internal/http/middlewarectx"
	"github.com/chrisminnick/starboard2/internal/http/response"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/objectstore"
	projectservice "github.com/chrisminnick/starboard2/internal/services/project"
)

// Handler serves POST /api/projects/{id}/export/{format}/archive.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service archives exports.
type Service interface {
	Archive(ctx context.Context, ownerID, projectID, format string) (*objectstore.Object, error)
}

// New returns a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Archive export
// @Description Stores the export in object storage and returns its key with a download link valid for 15 minutes.
// @Tags Projects
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param format path string true "Export format" Enums(markdown, txt)
// @Success 201 {object} objectstore.Object
// @Failure 400 {object} response.ErrorResponse "Unsupported format"
// @Failure 404 {object} response.ErrorResponse "Project not found"
// @Failure 503 {object} response.ErrorResponse "Storage not configured"
// @Router /projects/{id}/export/{format}/archive [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.project.archive"
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

	obj, err := h.service.Archive(r.Context(), user.ID, id, format)
	switch {
	case errors.Is(err, projectservice.ErrStorageDisabled):
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("Export archive is not available"))
		return
	case errors.Is(err, projectservice.ErrUnsupportedFormat):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Unsupported export format"))
		return
	case errors.Is(err, projectservice.ErrProjectNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Project not found"))
		return
	case err != nil:
		log.Error("failed to archive export", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not archive export"))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, obj)
}
