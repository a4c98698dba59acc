package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/starford/articles/docs" // swagger docs
)

// Options configures the optional parts of the router.
type Options struct {
	Logger *slog.Logger
	// Docs mounts the Swagger UI under /swagger/.
	Docs bool
	// Metrics exposes Prometheus metrics at /metrics.
	Metrics bool
}

// NewRouter creates a chi router with the article, health, metrics and
// documentation routes.
func NewRouter(svc ArticleService, opts Options) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(logger))
	r.Use(Instrument)
	r.Use(Recoverer(h.respondError))

	r.NotFound(h.routeNotFound)
	r.MethodNotAllowed(h.methodNotAllowed)

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)

	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	if opts.Docs {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	r.Post("/api/articles", h.CreateArticle)
	r.Get("/api/articles", h.ListArticles)
	r.Get("/api/articles/{id}", h.GetArticle)
	r.Delete("/api/articles/{id}", h.DeleteArticle)

	return r
}
