// Package api exposes the prediction, analytics and catalog endpoints over
// HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/chrisdamba/orderly/internal/catalog"
	"github.com/chrisdamba/orderly/internal/dataset"
	"github.com/chrisdamba/orderly/internal/inference"
	"github.com/chrisdamba/orderly/internal/models"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Predictor interface {
	Predict(ctx context.Context, req inference.Request) (inference.Result, error)
}

type Summarizer interface {
	Summarize(ctx context.Context) models.AnalyticsSummary
}

type PredictionHistory interface {
	Len() int
	Recent(n int) []models.PredictionRecord
}

type DatasetReloader interface {
	Reload(ctx context.Context) (*dataset.Batch, error)
}

// Deps are the collaborators behind the handlers. Reloader may be nil, in
// which case /admin/reload is not mounted.
type Deps struct {
	Predictor   Predictor
	Models      inference.ModelSource
	Analytics   Summarizer
	History     PredictionHistory
	Reloader    DatasetReloader
	Catalog     *catalog.Catalog
	Recommender *catalog.Recommender
}

type Options struct {
	CORSOrigins        []string
	RateLimitPerMinute int
}

type Router struct {
	deps     Deps
	opts     Options
	validate *validator.Validate
}

func NewRouter(deps Deps, opts Options) *Router {
	return &Router{deps: deps, opts: opts, validate: validator.New()}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(rt.opts.CORSOrigins))

	r.Get("/healthz", rt.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(rt.opts.RateLimitPerMinute))
		r.Use(PrometheusMetrics)

		r.Get("/", rt.home)
		r.Post("/predict", rt.predict)
		r.Get("/analyze", rt.analyze)
		r.Get("/feature-importance", rt.featureImportance)
		r.Get("/stats", rt.stats)
		r.Post("/recommendations", rt.recommendations)
		r.Get("/customers", rt.customers)
		r.Get("/menu/{vendor_id}/{city}", rt.menu)
		if rt.deps.Reloader != nil {
			r.Post("/admin/reload", rt.reload)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}
