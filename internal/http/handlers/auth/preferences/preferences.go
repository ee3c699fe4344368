// Package preferences updates the editor preferences of the current user.
package preferences

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
	authservice "github.com/chrisminnick/starboard2/internal/services/auth"
)

// Handler serves PATCH /api/auth/preferences.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service stores preferences.
type Service interface {
	UpdatePreferences(ctx context.Context, userID string, patch models.PreferencesPatch) (*models.Preferences, error)
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
// @Summary Update preferences
// @Description Only defaultTemplate, autoSaveInterval and editorTheme are applied.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.PreferencesPatch true "Preferences to change"
// @Success 200 {object} map[string]any "preferences"
// @Failure 400 {object} response.ErrorResponse "Invalid value"
// @Failure 401 {object} response.ErrorResponse "Not authenticated"
// @Router /auth/preferences [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.preferences"
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

	var patch models.PreferencesPatch
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

	prefs, err := h.service.UpdatePreferences(r.Context(), user.ID, patch)
	if errors.Is(err, authservice.ErrUserNotFound) {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid token"))
		return
	}
	if err != nil {
		log.Error("failed to update preferences", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update preferences"))
		return
	}

	render.JSON(w, r, map[string]any{"preferences": prefs})
}
