// Package create stores a new project.
package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

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

// Handler serves POST /api/projects.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service creates projects.
type Service interface {
	Create(ctx context.Context, ownerID string, fields models.NewProject) (*models.Project, error)
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
// @Summary Create project
// @Tags Projects
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.NewProject true "Project fields"
// @Success 201 {object} map[string]any "project"
// @Failure 400 {object} response.ErrorResponse "Invalid body"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Router /projects [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.project.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req models.NewProject
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Invalid(err))
		return
	}

	project, err := h.service.Create(r.Context(), user.ID, req)
	if errors.Is(err, projectservice.ErrEmptyTitle) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Title is required"))
		return
	}
	if err != nil {
		log.Error("failed to create project", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create project"))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{"project": project})
}
