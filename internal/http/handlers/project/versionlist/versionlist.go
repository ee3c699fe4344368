// Package versionlist returns the version history of a project.
package versionlist

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
	"github.com/chrisminnick/starboard2/internal/models"
	projectservice "github.com/chrisminnick/starboard2/internal/services/project"
)

// Handler serves GET /api/projects/{id}/versions.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service lists versions.
type Service interface {
	ListVersions(ctx context.Context, ownerID, projectID string) ([]models.Version, error)
}

// New returns a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary List versions
// @Tags Versions
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} map[string]any "versions"
// @Failure 404 {object} response.ErrorResponse "Project not found"
// @Router /projects/{id}/versions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.project.versionlist"
	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("project_id", id),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	versions, err := h.service.ListVersions(r.Context(), user.ID, id)
	if errors.Is(err, projectservice.ErrProjectNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Project not found"))
		return
	}
	if err != nil {
		log.Error("failed to list versions", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list versions"))
		return
	}

	render.JSON(w, r, map[string]any{"versions": versions})
}
