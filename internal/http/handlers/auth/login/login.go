// Package login implements the login endpoint.
package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/chrisminnick/starboard2/internal/http/response"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/lib/validate"
	"github.com/chrisminnick/starboard2/internal/models"
	authservice "github.com/chrisminnick/starboard2/internal/services/auth"
)

// Request is the login body.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Handler serves POST /api/auth/login.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service checks credentials.
type Service interface {
	Login(ctx context.Context, email, password string) (string, *models.PublicUser, error)
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
// @Summary Login
// @Description Checks the credentials and the trial, returns a bearer token.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Credentials"
// @Success 200 {object} map[string]any "token and user"
// @Failure 400 {object} response.ErrorResponse "Invalid body"
// @Failure 401 {object} response.ErrorResponse "Invalid credentials"
// @Failure 403 {object} response.ErrorResponse "Trial expired"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, authservice.ErrInvalidCredentials):
		log.Info("invalid credentials")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("Invalid credentials"))
		return
	case errors.Is(err, authservice.ErrTrialExpired):
		log.Info("trial expired")
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.TrialExpired(authservice.ErrTrialExpired.Error()))
		return
	case err != nil:
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not log in"))
		return
	}

	log.Info("login success", slog.String("user_id", user.ID))
	render.JSON(w, r, map[string]any{
		"token": token,
		"user":  user,
	})
}
