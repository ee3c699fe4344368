// Package interactions lists the advisor interactions of a project.
package interactions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/chrisminnick/starboard2/internal/http/middlewarectx"
	"github.com/chrisminnick/starboard2/internal/http/response"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/models"
	advisorservice "github.com/chrisminnick/starboard2/internal/services/advisor"
)

// Handler serves GET /api/advisors/{projectId}/interactions.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service lists interactions.
type Service interface {
	ListInteractions(ctx context.Context, ownerID, projectID string,
		filter models.InteractionFilter) ([]models.Interaction, error)
}

// New returns a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

var errBadFilter = errors.New("bad filter")

func parseFilter(r *http.Request) (models.InteractionFilter, error) {
	q := r.URL.Query()
	var f models.InteractionFilter

	if v := q.Get("advisorRole"); v != "" {
		f.Role = models.Role(v)
		if !f.Role.Valid() {
			return f, errBadFilter
		}
	}
	if v := q.Get("type"); v != "" {
		f.Type = models.InteractionType(v)
		if !f.Type.Valid() {
			return f, errBadFilter
		}
	}
	if v := q.Get("resolved"); v != "" {
		resolved, err := strconv.ParseBool(v)
		if err != nil {
			return f, errBadFilter
		}
		f.Resolved = &resolved
	}
	return f, nil
}

// ServeHTTP godoc
// @Summary List interactions
// @Description Interactions in creation order, optionally narrowed by role, type and resolved flag.
// @Tags Advisors
// @Produce  json
// @Security BearerAuth
// @Param projectId path string true "Project ID"
// @Param advisorRole query string false "Persona" Enums(editor, copyeditor, reader)
// @Param type query string false "Interaction type" Enums(chat, inline_comment, structured_feedback)
// @Param resolved query bool false "Resolved flag"
// @Success 200 {object} map[string]any "interactions"
// @Failure 400 {object} response.ErrorResponse "Invalid filter"
// @Failure 404 {object} response.ErrorResponse "Project not found"
// @Router /advisors/{projectId}/interactions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.advisor.interactions"
	projectID := chi.URLParam(r, "projectId")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("project_id", projectID),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid interaction filter"))
		return
	}

	list, err := h.service.ListInteractions(r.Context(), user.ID, projectID, filter)
	switch {
	case errors.Is(err, advisorservice.ErrInvalidRole):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid advisor role"))
		return
	case errors.Is(err, advisorservice.ErrProjectNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Project not found"))
		return
	case err != nil:
		log.Error("failed to list interactions", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list interactions"))
		return
	}

	render.JSON(w, r, map[string]any{"interactions": list})
}
