// Package update applies a partial project update.
package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/chrisminnick/starboard2/internal/http/middlewarectx"
	"github.com/chrisminnick/starboard2/internal/http/response"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/lib/validate"
	"github.com/chrisminnick/starboard2/internal/models"
	projectservice "github.com/chrisminnick/starboard2/internal/services/project"
)

// Handler serves PATCH /api/projects/{id}.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service updates projects.
type Service interface {
	Update(ctx context.Context, ownerID, projectID string, patch models.ProjectPatch) (*models.Project, error)
}

// New returns a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validate.New(),
	}
}

// ServeHTTP godoc
// @Summary Update project
// @Description Absent fields stay unchanged. A content change snapshots the previous content as a version and recomputes the word count.
// @Tags Projects
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body models.ProjectPatch true "Fields to change"
// @Success 200 {object} map[string]any "project"
// @Failure 400 {object} response.ErrorResponse "Invalid value"
// @Failure 404 {object} response.ErrorResponse "Project not found"
// @Router /projects/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.project.update"
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

	var patch models.ProjectPatch
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Invalid(err))
		return
	}

	project, err := h.service.Update(r.Context(), user.ID, id, patch)
	switch {
	case errors.Is(err, projectservice.ErrProjectNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Project not found"))
		return
	case errors.Is(err, projectservice.ErrEmptyTitle):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Title is required"))
		return
	case err != nil:
		log.Error("failed to update project", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update project"))
		return
	}

	render.JSON(w, r, map[string]any{"project": project})
}
