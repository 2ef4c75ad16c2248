// internal/app/features/api/routes.go
package api

import "github.com/go-chi/chi/v5"

// Routes returns the JSON API router, mounted under /api.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Put("/{id}", h.UpdateUser)
		r.Delete("/{id}", h.DeleteUser)
	})

	r.Route("/matchings", func(r chi.Router) {
		r.Get("/unmatched/clients", h.UnmatchedClients)
		r.Get("/potential/{client_id}", h.PotentialHelpers)
		r.Get("/users", h.MatchedPairs)
		r.Post("/assign", h.Assign)
		r.Post("/unassign", h.Unassign)
	})

	return r
}
