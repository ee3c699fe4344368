// Package health answers liveness and readiness checks.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/chrisminnick/starboard2/internal/http/response"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
)

const runningMessage = "Starboard Write API is running"

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves GET /health.
type Handler struct {
	log *slog.Logger
}

// New returns the liveness Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Health check
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Health
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.Health{
		Status:  response.StatusOK,
		Message: runningMessage,
	})
}

// Readiness serves GET /ready.
type Readiness struct {
	log *slog.Logger
	db  Pinger
}

// NewReadiness returns a Readiness handler. db may be nil.
func NewReadiness(log *slog.Logger, db Pinger) *Readiness {
	return &Readiness{log: log, db: db}
}

// ServeHTTP godoc
// @Summary Readiness check
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Health
// @Failure 503 {object} response.ErrorResponse "Database unreachable"
// @Router /ready [get]
func (h *Readiness) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health.Readiness"
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.log.Error("database ping failed", slog.String("op", op), sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("database unavailable"))
			return
		}
	}
	render.JSON(w, r, response.Health{
		Status:  response.StatusOK,
		Message: runningMessage,
	})
}
