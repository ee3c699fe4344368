// Package read returns one project with its content.
package read

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

// Handler serves GET /api/projects/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service reads projects.
type Service interface {
	Get(ctx context.Context, ownerID, projectID string) (*models.Project, error)
}

// New returns a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Get project
// @Tags Projects
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} map[string]any "project"
// @Failure 404 {object} response.ErrorResponse "Project not found"
// @Router /projects/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.project.read"
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

	project, err := h.service.Get(r.Context(), user.ID, id)
	if errors.Is(err, projectservice.ErrProjectNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Project not found"))
		return
	}
	if err != nil {
		log.Error("failed to get project", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get project"))
		return
	}

	render.JSON(w, r, map[string]any{"project": project})
}
