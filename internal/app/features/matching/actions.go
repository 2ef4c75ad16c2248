// internal/app/features/matching/actions.go
package matching

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/matchdesk/internal/app/coordinator"
	"go.uber.org/zap"
)

var errBadID = errors.New("invalid id")

// formID reads a positive id from the form. An empty value is 0 when
// allowZero is set (select uses it to clear the selection).
func formID(r *http.Request, key string, allowZero bool) (int64, error) {
	v := strings.TrimSpace(r.PostFormValue(key))
	if v == "" && allowZero {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errBadID
	}
	if id < 0 || (id == 0 && !allowZero) {
		return 0, errBadID
	}
	return id, nil
}

// HandleSelect handles POST /matching/select (client_id). An empty or zero
// id clears the selection.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	clientID, err := formID(r, "client_id", true)
	if err != nil {
		h.ErrLog.HTMXLogBadRequest(w, r, "select: bad client id", err, "Invalid client.", "/matching")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	c, deskID, ok := h.desk(ctx, w, r)
	if !ok {
		return
	}
	err = c.SelectClient(ctx, clientID)
	if errors.Is(err, coordinator.ErrClosed) {
		h.expired(w, r, err)
		return
	}
	h.writeUpdate(ctx, w, c, deskID, statusFor(err), updateData{Clients: true, Helpers: true})
}

// HandleAssign handles POST /matching/assign (client_id, helper_id).
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	clientID, helperID, ok := h.pairIDs(w, r, "assign")
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	c, deskID, ok := h.desk(ctx, w, r)
	if !ok {
		return
	}

	err := c.Assign(ctx, clientID, helperID)
	switch {
	case errors.Is(err, coordinator.ErrNoSelection), errors.Is(err, coordinator.ErrSelectionMismatch):
		h.ErrLog.HTMXLogBadRequest(w, r, "assign: client not selected", err,
			"Select the client before assigning a helper.", "/matching")
		return
	case errors.Is(err, coordinator.ErrClosed):
		h.expired(w, r, err)
		return
	}
	h.writeUpdate(ctx, w, c, deskID, statusFor(err), updateData{Clients: true, Helpers: true, Pairs: true})
}

// HandleUnassign handles POST /matching/unassign (client_id, helper_id).
func (h *Handler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	clientID, helperID, ok := h.pairIDs(w, r, "unassign")
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	c, deskID, ok := h.desk(ctx, w, r)
	if !ok {
		return
	}

	err := c.Unassign(ctx, clientID, helperID)
	if errors.Is(err, coordinator.ErrClosed) {
		h.expired(w, r, err)
		return
	}
	h.writeUpdate(ctx, w, c, deskID, statusFor(err), updateData{Clients: true, Pairs: true})
}

func (h *Handler) pairIDs(w http.ResponseWriter, r *http.Request, op string) (int64, int64, bool) {
	clientID, err := formID(r, "client_id", false)
	if err != nil {
		h.ErrLog.HTMXLogBadRequest(w, r, op+": bad client id", err, "Invalid client.", "/matching")
		return 0, 0, false
	}
	helperID, err := formID(r, "helper_id", false)
	if err != nil {
		h.ErrLog.HTMXLogBadRequest(w, r, op+": bad helper id", err, "Invalid helper.", "/matching")
		return 0, 0, false
	}
	return clientID, helperID, true
}

// expired answers a request whose desk was swept while it was running.
func (h *Handler) expired(w http.ResponseWriter, r *http.Request, err error) {
	h.Log.Debug("desk closed mid-request", zap.Error(err))
	h.ErrLog.HTMXLogBadRequest(w, r, "desk closed", err, "Your desk was reset. Reload the page.", "/matching")
}
