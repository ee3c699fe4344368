// Package starboard assembles the HTTP API: storage, optional backing
// services, the business services and the router.
package starboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chrisminnick/starboard2/internal/advisor"
	"github.com/chrisminnick/starboard2/internal/cache"
	"github.com/chrisminnick/starboard2/internal/config"
	"github.com/chrisminnick/starboard2/internal/http/middlewarectx"
	"github.com/chrisminnick/starboard2/internal/lib/jwt"
	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/metrics"
	"github.com/chrisminnick/starboard2/internal/migrations"
	"github.com/chrisminnick/starboard2/internal/objectstore"
	"github.com/chrisminnick/starboard2/internal/search"
	advisorservice "github.com/chrisminnick/starboard2/internal/services/advisor"
	authservice "github.com/chrisminnick/starboard2/internal/services/auth"
	projectservice "github.com/chrisminnick/starboard2/internal/services/project"
	"github.com/chrisminnick/starboard2/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App is the API server with the connections it owns.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
	meili  *search.Meili
	search *search.Service
}

// New connects to PostgreSQL, applies migrations and wires the optional
// Redis, Meilisearch and object storage backends. A backend that is not
// configured, or does not answer, is skipped with a warning.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.starboard.New"

	db, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{logger: logger, db: db}

	var listCache projectservice.Cache
	var invalidator advisorservice.Invalidator
	if cfg.RedisAddress != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis unavailable, project listings are not cached", sl.Err(err))
		} else {
			app.cache = redisCache
			listCache = redisCache
			invalidator = redisCache
		}
	}

	var engine search.Engine
	if cfg.MeiliURL != "" {
		app.meili = search.NewMeili(logger, cfg.MeiliURL, cfg.MeiliAPIKey)
		engine = app.meili
	}
	searcher := search.NewService(logger, engine, db)
	app.search = searcher

	var archive projectservice.ArchiveStore
	if cfg.S3Endpoint != "" {
		store, err := objectstore.New(ctx, cfg.ObjectStorage)
		if err != nil {
			logger.Warn("object storage unavailable, export archive disabled", sl.Err(err))
		} else {
			archive = store
		}
	}

	m := metrics.New()
	if cfg.OpenAIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, advisors answer with canned replies")
	}
	adv, err := advisor.New(logger, advisor.NewOpenAI(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel), m)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	services := Services{
		Auth:     authservice.NewAuthService(db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)),
		Projects: projectservice.NewProjectService(db, listCache, searcher, archive, logger),
		Advisors: advisorservice.NewAdvisorService(db, adv, invalidator, logger).WithSearchIndex(searcher),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, RouteOptions{
		ClientURL:    cfg.ClientURL,
		ExposeErrors: cfg.Env != config.EnvProd,
		RateLimit:    middlewarectx.DefaultRequests,
		RateWindow:   middlewarectx.DefaultWindow,
	}, services, m, db)

	app.server = &http.Server{
		Addr:         cfg.ListenAddress(),
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.search != nil {
		a.search.Close()
	}
	if a.meili != nil {
		a.meili.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
