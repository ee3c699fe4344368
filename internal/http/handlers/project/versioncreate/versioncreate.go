// Package versioncreate takes a manual snapshot of a project's content.
package versioncreate

import (
	"context"
	"errors"
	"io"
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

// Request is the optional snapshot body.
type Request struct {
	Comment string `json:"comment"`
}

// Handler serves POST /api/projects/{id}/versions.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service snapshots projects.
type Service interface {
	CreateVersion(ctx context.Context, ownerID, projectID, comment string) (*models.Version, error)
}

// New returns a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Create version
// @Description The body is optional. Without a comment the version is labelled "Manual version".
// @Tags Versions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body Request false "Comment"
// @Success 201 {object} map[string]any "version"
// @Failure 404 {object} response.ErrorResponse "Project not found"
// @Router /projects/{id}/versions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.project.versioncreate"
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

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	version, err := h.service.CreateVersion(r.Context(), user.ID, id, req.Comment)
	if errors.Is(err, projectservice.ErrProjectNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Project not found"))
		return
	}
	if err != nil {
		log.Error("failed to create version", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create version"))
		return
	}

	log.Info("version created", slog.Int("version", version.Number))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{"version": version})
}
