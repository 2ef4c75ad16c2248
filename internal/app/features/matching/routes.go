// internal/app/features/matching/routes.go
package matching

import (
	"github.com/dalemusser/matchdesk/internal/app/system/session"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the desk under whatever base path the caller chooses
// (typically "/matching" from bootstrap).
//
//	h := matching.NewHandler(desks, queue, errLog, logger)
//	r.Mount("/matching", matching.Routes(h, sessionMgr))
func Routes(h *Handler, sm *session.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.LoadDesk)

	r.Get("/", h.ServePage)

	// Panels (HTMX)
	r.Get("/clients", h.ServeClients)
	r.Get("/helpers", h.ServeHelpers)
	r.Get("/pairs", h.ServePairs)
	r.Get("/notifications", h.ServeNotifications)

	// Actions (HTMX)
	r.Post("/select", h.HandleSelect)
	r.Post("/assign", h.HandleAssign)
	r.Post("/unassign", h.HandleUnassign)

	return r
}
