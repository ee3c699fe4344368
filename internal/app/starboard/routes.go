package starboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/chrisminnick/starboard2/internal/http/handlers/advisor/chat"
	"github.com/chrisminnick/starboard2/internal/http/handlers/advisor/comment"
	"github.com/chrisminnick/starboard2/internal/http/handlers/advisor/feedback"
	"github.com/chrisminnick/starboard2/internal/http/handlers/advisor/interactions"
	"github.com/chrisminnick/starboard2/internal/http/handlers/advisor/resolve"
	"github.com/chrisminnick/starboard2/internal/http/handlers/auth/login"
	"github.com/chrisminnick/starboard2/internal/http/handlers/auth/me"
	"github.com/chrisminnick/starboard2/internal/http/handlers/auth/preferences"
	"github.com/chrisminnick/starboard2/internal/http/handlers/auth/register"
	"github.com/chrisminnick/starboard2/internal/http/handlers/health"
	"github.com/chrisminnick/starboard2/internal/http/handlers/project/archive"
	"github.com/chrisminnick/starboard2/internal/http/handlers/project/create"
	"github.com/chrisminnick/starboard2/internal/http/handlers/project/export"
	"github.com/chrisminnick/starboard2/internal/http/handlers/project/list"
	"github.com/chrisminnick/starboard2/internal/http/handlers/project/read"
	"github.com/chrisminnick/starboard2/internal/http/handlers/project/remove"
	"github.com/chrisminnick/starboard2/internal/http/handlers/project/search"
	"github.com/chrisminnick/starboard2/internal/http/handlers/project/update"
	"github.com/chrisminnick/starboard2/internal/http/handlers/project/versioncreate"
	"github.com/chrisminnick/starboard2/internal/http/handlers/project/versionlist"
	"github.com/chrisminnick/starboard2/internal/http/middlewarectx"
	"github.com/chrisminnick/starboard2/internal/http/response"
	"github.com/chrisminnick/starboard2/internal/metrics"
	advisorservice "github.com/chrisminnick/starboard2/internal/services/advisor"
	authservice "github.com/chrisminnick/starboard2/internal/services/auth"
	projectservice "github.com/chrisminnick/starboard2/internal/services/project"
)

// maxBodyBytes bounds request bodies; project content travels whole.
const maxBodyBytes = 10 << 20

// Services are the business services behind the routes.
type Services struct {
	Auth     *authservice.AuthService
	Projects *projectservice.ProjectService
	Advisors *advisorservice.AdvisorService
}

// RouteOptions tune the middleware stack.
type RouteOptions struct {
	ClientURL    string
	ExposeErrors bool
	RateLimit    int
	RateWindow   time.Duration
}

// RegisterRoutes mounts the API, the health checks, metrics and the docs.
// db may be nil.
func RegisterRoutes(r chi.Router, logger *slog.Logger, opts RouteOptions, svc Services, m *metrics.Metrics, db health.Pinger) {
	limiter := middlewarectx.NewRateLimiter(opts.RateLimit, opts.RateWindow)

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middlewarectx.Recoverer(logger, opts.ExposeErrors),
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{opts.ClientURL},
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.RequestSize(maxBodyBytes),
		m.Middleware,
	)

	r.NotFound(notFound)

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Get("/ready", health.NewReadiness(logger, db).ServeHTTP)
	r.Handle("/metrics", m.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))

		r.Post("/auth/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, svc.Auth).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))

			r.Get("/auth/me", me.New(logger).ServeHTTP)
			r.Patch("/auth/preferences", preferences.New(logger, svc.Auth).ServeHTTP)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", list.New(logger, svc.Projects).ServeHTTP)
				r.Post("/", create.New(logger, svc.Projects).ServeHTTP)
				r.Get("/search", search.New(logger, svc.Projects).ServeHTTP)
				r.Get("/{id}", read.New(logger, svc.Projects).ServeHTTP)
				r.Patch("/{id}", update.New(logger, svc.Projects).ServeHTTP)
				r.Delete("/{id}", remove.New(logger, svc.Projects).ServeHTTP)
				r.Get("/{id}/versions", versionlist.New(logger, svc.Projects).ServeHTTP)
				r.Post("/{id}/versions", versioncreate.New(logger, svc.Projects).ServeHTTP)
				r.Get("/{id}/export/{format}", export.New(logger, svc.Projects).ServeHTTP)
				r.Post("/{id}/export/{format}/archive", archive.New(logger, svc.Projects).ServeHTTP)
			})

			r.Route("/advisors/{projectId}", func(r chi.Router) {
				r.Post("/chat", chat.New(logger, svc.Advisors).ServeHTTP)
				r.Post("/feedback", feedback.New(logger, svc.Advisors).ServeHTTP)
				r.Post("/comment", comment.New(logger, svc.Advisors).ServeHTTP)
				r.Get("/interactions", interactions.New(logger, svc.Advisors).ServeHTTP)
				r.Patch("/interactions/{interactionId}/resolve", resolve.New(logger, svc.Advisors).ServeHTTP)
			})
		})
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, response.Error("Route not found"))
}
