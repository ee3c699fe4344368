// Package list returns the caller's projects.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/chrisminnick/starboard2/internal/http/middlewarectx"
	"github.com/chrisminnick/starboard2/internal/http/response"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/models"
)

// Handler serves GET /api/projects.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service lists projects.
type Service interface {
	List(ctx context.Context, ownerID string) ([]models.ProjectSummary, error)
}

// New returns a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary List projects
// @Description Summaries of the caller's projects without content, newest update first.
// @Tags Projects
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "projects"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Router /projects [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.project.list"
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

	projects, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		log.Error("failed to list projects", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list projects"))
		return
	}

	render.JSON(w, r, map[string]any{"projects": projects})
}
