// Package search finds projects by text.
package search

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/chrisminnick/starboard2/internal/http/middlewarectx"
	"github.com/chrisminnick/starboard2/internal/http/response"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	searchindex "github.com/chrisminnick/starboard2/internal/search"
	projectservice "github.com/chrisminnick/starboard2/internal/services/project"
)

// Handler serves GET /api/projects/search.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service searches projects.
type Service interface {
	Search(ctx context.Context, ownerID, text string, limit int) (*searchindex.Response, error)
}

// New returns a Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Search projects
// @Description Matches title, description and genre of the caller's projects.
// @Tags Projects
// @Produce  json
// @Security BearerAuth
// @Param q query string true "Search text"
// @Param limit query int false "Maximum results"
// @Success 200 {object} searchindex.Response
// @Failure 400 {object} response.ErrorResponse "Empty query"
// @Router /projects/search [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.project.search"
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

	query := r.URL.Query()
	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	result, err := h.service.Search(r.Context(), user.ID, query.Get("q"), limit)
	if errors.Is(err, projectservice.ErrEmptyQuery) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Search query is required"))
		return
	}
	if err != nil {
		log.Error("search failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not search projects"))
		return
	}

	render.JSON(w, r, result)
}
