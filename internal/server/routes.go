package server

import (
	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers the joke routes, the health check and, when metrics
// are enabled, the metrics endpoint.
func SetupRoutes(router chi.Router, h *Handlers, metrics *Metrics, metricsPath string) {
	router.Get("/", h.Index)
	router.Get("/healthz", h.Health)

	router.Route("/jokes", func(r chi.Router) {
		r.Get("/", h.GetJokes)
		r.Post("/", h.CreateJoke)
		r.Delete("/", h.DeleteAllJokes)
		r.Get("/random", h.RandomJoke)
		r.Get("/all", h.ListJokes)
	})

	router.Get("/joke/{id}", h.GetJoke)
	router.Delete("/joke/{id}", h.DeleteJoke)

	if metrics != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		router.Handle(metricsPath, metrics.Handler())
	}
}
