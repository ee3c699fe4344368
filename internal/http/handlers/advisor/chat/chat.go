// Package chat forwards a message to an advisor persona.
package chat

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
	advisorservice "github.com/chrisminnick/starboard2/internal/services/advisor"
)

// Request is the chat body.
type Request struct {
	AdvisorRole models.Role `json:"advisorRole" validate:"required,oneof=editor copyeditor reader"`
	Message     string      `json:"message" validate:"required"`
}

// Response is the advisor reply.
type Response struct {
	Response    string      `json:"response"`
	AdvisorRole models.Role `json:"advisorRole"`
}

// Handler serves POST /api/advisors/{projectId}/chat.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service talks to advisors.
type Service interface {
	Chat(ctx context.Context, ownerID, projectID string, role models.Role, message string) (string, error)
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
// @Summary Chat with an advisor
// @Description The exchange is stored as a chat interaction and appended to the persona's memory.
// @Tags Advisors
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param projectId path string true "Project ID"
// @Param request body Request true "Message"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Invalid role or message"
// @Failure 404 {object} response.ErrorResponse "Project not found"
// @Router /advisors/{projectId}/chat [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.advisor.chat"
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

	var req Request
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

	reply, err := h.service.Chat(r.Context(), user.ID, projectID, req.AdvisorRole, req.Message)
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
		log.Error("advisor chat failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get advisor response"))
		return
	}

	render.JSON(w, r, Response{Response: reply, AdvisorRole: req.AdvisorRole})
}
