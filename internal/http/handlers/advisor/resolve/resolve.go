// Package resolve marks an advisor interaction resolved.
package resolve

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
	advisorservice "github.com/chrisminnick/starboard2/internal/services/advisor"
)

// Handler serves PATCH /api/advisors/{projectId}/interactions/{interactionId}/resolve.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service resolves interactions.
type Service interface {
	ResolveInteraction(ctx context.Context, ownerID, projectID, interactionID string) error
}

// New returns a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Resolve interaction
// @Description Resolving twice succeeds without further change.
// @Tags Advisors
// @Produce  json
// @Security BearerAuth
// @Param projectId path string true "Project ID"
// @Param interactionId path string true "Interaction ID"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.ErrorResponse "Interaction not found"
// @Router /advisors/{projectId}/interactions/{interactionId}/resolve [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.advisor.resolve"
	projectID := chi.URLParam(r, "projectId")
	interactionID := chi.URLParam(r, "interactionId")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("project_id", projectID),
		slog.String("interaction_id", interactionID),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	err := h.service.ResolveInteraction(r.Context(), user.ID, projectID, interactionID)
	if errors.Is(err, advisorservice.ErrInteractionNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Interaction not found"))
		return
	}
	if err != nil {
		log.Error("failed to resolve interaction", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not resolve interaction"))
		return
	}

	render.JSON(w, r, response.Message{Message: "Interaction resolved successfully"})
}
