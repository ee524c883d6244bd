package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/tariffs-service/internal/delivery/http/handler"
	"github.com/user/tariffs-service/internal/delivery/http/middleware"
	"github.com/user/tariffs-service/pkg/metrics"
)

func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Get("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}).ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)
		r.Get("/runs", h.HandleRecentRuns)
		r.Get("/runs/latest", h.HandleLatestRun)
		r.Get("/tasks", h.HandleListTasks)
		r.Post("/pipeline/run", h.HandleTriggerPipeline)
		r.Post("/retention/run", h.HandleTriggerRetention)
	})

	return r
}
