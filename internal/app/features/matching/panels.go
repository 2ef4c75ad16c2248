// internal/app/features/matching/panels.go
package matching

import (
	"context"
	"net/http"

	"github.com/dalemusser/matchdesk/internal/app/coordinator"
	"github.com/dalemusser/matchdesk/internal/app/system/paging"
	"github.com/dalemusser/matchdesk/internal/app/system/session"
	"github.com/dalemusser/matchdesk/internal/app/system/viewdata"
	"go.uber.org/zap"
)

// ServePage handles GET /matching: the whole desk, reloaded at the pages it
// was already on. Toasts are fetched by the page itself on load.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	id, ok := session.DeskID(r)
	if !ok {
		h.ErrLog.HTMXLogBadRequest(w, r, "matching page without desk", errNoDesk,
			"Your session has expired. Reload the page.", "/matching")
		return
	}
	c, created := h.Desks.Get(id)
	if created {
		h.Log.Info("desk opened", zap.String("desk_id", id))
	}
	c.Open(ctx)

	renderPage(w, r, "matching_page", pageData{
		BaseVM: viewdata.NewBaseVM(r, "Matching", "/matching"),
		Panel:  panelData{State: c.Snapshot()},
	})
}

// pageFunc moves one of the desk's views.
type pageFunc func(c *coordinator.Coordinator, ctx context.Context, page int) (bool, error)

func (h *Handler) servePanel(w http.ResponseWriter, r *http.Request, move pageFunc, upd updateData) {
	ctx, cancel := requestContext(r)
	defer cancel()

	c, deskID, ok := h.desk(ctx, w, r)
	if !ok {
		return
	}
	// Out-of-range pages are ignored; the panel is re-rendered as it is.
	_, err := move(c, ctx, paging.ParsePage(r))
	h.writeUpdate(ctx, w, c, deskID, statusFor(err), upd)
}

// ServeClients handles GET /matching/clients?page.
func (h *Handler) ServeClients(w http.ResponseWriter, r *http.Request) {
	h.servePanel(w, r, (*coordinator.Coordinator).PageClients, updateData{Clients: true})
}

// ServeHelpers handles GET /matching/helpers?page. Without a selection the
// empty panel is returned.
func (h *Handler) ServeHelpers(w http.ResponseWriter, r *http.Request) {
	h.servePanel(w, r, (*coordinator.Coordinator).PageHelpers, updateData{Helpers: true})
}

// ServePairs handles GET /matching/pairs?page.
func (h *Handler) ServePairs(w http.ResponseWriter, r *http.Request) {
	h.servePanel(w, r, (*coordinator.Coordinator).PagePairs, updateData{Pairs: true})
}

// ServeNotifications handles GET /matching/notifications, polled by the
// toast region. 204 when nothing is pending.
func (h *Handler) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	deskID, ok := session.DeskID(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	toasts := h.drain(ctx, deskID)
	if len(toasts) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderSnippet(w, "matching_toasts", toasts)
}

func statusFor(err error) int {
	if err != nil {
		return http.StatusBadGateway
	}
	return http.StatusOK
}
