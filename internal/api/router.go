package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/schedules", s.handleListSchedules)
		r.Post("/schedules/{pageID}/trigger", s.handleTrigger)
		r.Patch("/schedules/{pageID}", s.handleUpdateSchedule)
		r.Get("/history", s.handleHistory)
		r.Get("/alerts", s.handleListAlerts)
		r.Post("/alerts/{alertID}/ack", s.handleAcknowledge)
		r.Post("/alerts/ack-all", s.handleAcknowledgeAll)
	})

	return r
}
