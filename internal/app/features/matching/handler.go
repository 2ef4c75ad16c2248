// internal/app/features/matching/handler.go
package matching

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/matchdesk/internal/app/coordinator"
	uierrors "github.com/dalemusser/matchdesk/internal/app/features/errors"
	"github.com/dalemusser/matchdesk/internal/app/system/notify"
	"github.com/dalemusser/matchdesk/internal/app/system/session"
	"github.com/dalemusser/matchdesk/internal/app/system/timeouts"
	"github.com/dalemusser/matchdesk/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler serves the matching desk: three paged panels (unmatched clients,
// helper candidates for the selected client, matched pairs) driven by the
// desk's coordinator.
type Handler struct {
	Desks  *coordinator.Registry
	Queue  notify.Queue
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

// NewHandler wires the desk registry and the toast queue the desks'
// notifiers push to.
func NewHandler(desks *coordinator.Registry, queue notify.Queue, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Desks:  desks,
		Queue:  queue,
		ErrLog: errLog,
		Log:    logger,
	}
}

// Rendering goes through these so handler tests can inspect view models
// without a booted template engine.
var (
	renderPage = func(w http.ResponseWriter, r *http.Request, name string, data any) {
		templates.Render(w, r, name, data)
	}
	renderSnippet = func(w http.ResponseWriter, name string, data any) {
		templates.RenderSnippet(w, name, data)
	}
)

var errNoDesk = errors.New("request has no desk id")

// panelData is what each panel template receives.
type panelData struct {
	State coordinator.State
	OOB   bool
}

// pageData is the full desk page.
type pageData struct {
	viewdata.BaseVM
	Panel panelData
}

// updateData is the body of every HTMX response: the panels that changed,
// swapped out of band, plus any pending toasts.
type updateData struct {
	Panel   panelData
	Clients bool
	Helpers bool
	Pairs   bool
	Toasts  []notify.Notification
}

// desk resolves the request's coordinator. A desk seen for the first time
// is opened (its lists loaded) before it is returned.
func (h *Handler) desk(ctx context.Context, w http.ResponseWriter, r *http.Request) (*coordinator.Coordinator, string, bool) {
	id, ok := session.DeskID(r)
	if !ok {
		h.ErrLog.HTMXLogBadRequest(w, r, "matching request without desk", errNoDesk,
			"Your session has expired. Reload the page.", "/matching")
		return nil, "", false
	}
	c, created := h.Desks.Get(id)
	if created {
		h.Log.Info("desk opened", zap.String("desk_id", id))
		c.Open(ctx)
	}
	return c, id, true
}

// drain returns the desk's pending toasts. A queue failure is logged and
// treated as no toasts.
func (h *Handler) drain(ctx context.Context, deskID string) []notify.Notification {
	list, err := h.Queue.Drain(ctx, deskID)
	if err != nil {
		h.Log.Warn("failed to drain notifications",
			zap.String("desk_id", deskID),
			zap.Error(err))
		return nil
	}
	return list
}

// writeUpdate renders the changed panels and pending toasts. status lets a
// failed backend call answer 502 while still showing the unchanged panels.
func (h *Handler) writeUpdate(ctx context.Context, w http.ResponseWriter, c *coordinator.Coordinator, deskID string, status int, upd updateData) {
	upd.Panel = panelData{State: c.Snapshot(), OOB: true}
	upd.Toasts = h.drain(ctx, deskID)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	renderSnippet(w, "matching_update", upd)
}

// requestContext bounds desk work by the request and the backend timeout.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), timeouts.Medium())
}
