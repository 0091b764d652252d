package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/site-auditor/internal/delivery/http/handler"
	"github.com/user/site-auditor/internal/delivery/http/middleware"
	"github.com/user/site-auditor/pkg/metrics"
)

func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(m))

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/api/health", h.HandleHealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/run", func(r chi.Router) {
			r.Post("/pending", h.HandleRunPending)
			r.Post("/all", h.HandleRunAll)
			r.Post("/{id}", h.HandleRunSite)
		})
		r.Get("/results", h.HandleResults)
		r.Get("/export", h.HandleExport)
		r.Get("/events", h.HandleEvents)
	})

	return r
}
