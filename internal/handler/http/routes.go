package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)

	// every onboarding route requires a bearer token from the identity service
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/api/records/", h.createRecord)
		r.Route("/api/records/{recordID}", func(r chi.Router) {
			r.Put("/steps", h.saveStep)
			r.Post("/steps/{step}/complete", h.completeStep)
			r.Get("/progress", h.getProgress)
			r.Post("/submit", h.submit)
		})
	})

	return router
}
