// Package middlewarectx contains the HTTP middleware of the API: bearer
// authentication with the trial gate, per-IP rate limiting and panic
// recovery.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/chrisminnick/starboard2/internal/http/response"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/models"
	authservice "github.com/chrisminnick/starboard2/internal/services/auth"
)

// Key is the type of request context keys set here.
type Key string

// User is the context key of the authenticated *models.User.
const User Key = "user"

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// UserFromContext returns the user stored by JWTMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(User).(*models.User)
	return user, ok && user != nil
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, User, user)
}

// JWTMiddleware checks the Authorization header and the access gate. An
// invalid token gives 401 and a closed gate gives 403 with trialExpired set.
func JWTMiddleware(auth Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("access denied, no token provided"))
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			user, err := auth.Authenticate(r.Context(), token)
			switch {
			case errors.Is(err, authservice.ErrTrialExpired):
				log.Info("trial expired, access denied")
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.TrialExpired(authservice.ErrTrialExpired.Error()))
				return
			case errors.Is(err, authservice.ErrInvalidToken):
				log.Warn("invalid or expired token")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid token"))
				return
			case err != nil:
				log.Error("failed to authenticate", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal server error"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
