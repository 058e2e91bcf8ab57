package api

import (
	"github.com/go-chi/chi/v5"
)

// setupAPIRoutes sets up API v1 routes
func (s *RESTServer) setupAPIRoutes(r chi.Router) {
	// Health check
	r.Get("/health", s.HandleHealth)
	r.Get("/", s.HandleRoot)

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.HandleLogin)
		r.Post("/refresh", s.HandleRefresh)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		// Users
		r.Route("/users", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListUsers)
			r.Post("/", s.HandleCreateUser)
			r.Get("/me", s.HandleGetCurrentUser)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetUser)
				r.Put("/", s.HandleUpdateUser)
				r.Delete("/", s.HandleDeleteUser)
			})
		})

		// Adapters
		r.Route("/adapters", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListAdapters)
			r.Post("/", s.HandleCreateAdapter)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetAdapter)
				r.Put("/", s.HandleUpdateAdapter)
				r.Delete("/", s.HandleDeleteAdapter)

				// Power-save control
				r.Route("/power-save", func(r chi.Router) {
					r.Get("/", s.HandleGetPowerSave)
					r.Put("/params", s.HandleUpdatePowerSaveParams)
					r.Post("/enable", s.HandleEnablePowerSave)
					r.Post("/disable", s.HandleDisablePowerSave)
					r.Post("/uapsd", s.HandleReconfigureUAPSD)
				})
			})
		})

		// Events
		r.Route("/events", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListEvents)
		})
	})
}
