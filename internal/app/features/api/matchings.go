// internal/app/features/api/matchings.go
package api

import (
	"context"
	"errors"
	"net/http"

	pairingstore "github.com/dalemusser/matchdesk/internal/app/store/pairings"
	personstore "github.com/dalemusser/matchdesk/internal/app/store/persons"
	"github.com/dalemusser/matchdesk/internal/app/system/inputval"
	"github.com/dalemusser/matchdesk/internal/app/system/timeouts"
	"github.com/dalemusser/matchdesk/internal/domain/models"
	"go.uber.org/zap"
)

type pairInput struct {
	ClientID int64 `json:"client_id" validate:"gt=0" label:"Client id"`
	HelperID int64 `json:"helper_id" validate:"gt=0" label:"Helper id"`
}

type clientsResponse struct {
	Clients []models.Person `json:"clients"`
	Total   int             `json:"total"`
}

type helpersResponse struct {
	PotentialHelpers []models.Person `json:"potentialHelpers"`
	Total            int             `json:"total"`
}

type matchingsResponse struct {
	Matchings []models.Pairing `json:"matchings"`
	Total     int              `json:"total"`
}

// UnmatchedClients handles GET /matchings/unmatched/clients.
func (h *Handler) UnmatchedClients(w http.ResponseWriter, r *http.Request) {
	page, size := h.pageParams(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Persons.ListUnmatchedClients(ctx, page, size)
	if err != nil {
		h.serverError(w, r, "list unmatched clients failed", err)
		return
	}
	writeJSON(w, http.StatusOK, clientsResponse{Clients: nonNil(res.Items), Total: res.Total})
}

// PotentialHelpers handles GET /matchings/potential/{client_id}: the helpers
// living in the client's city, in name order.
func (h *Handler) PotentialHelpers(w http.ResponseWriter, r *http.Request) {
	clientID, err := idParam(r, "client_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}
	page, size := h.pageParams(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	client, err := h.Persons.GetByID(ctx, clientID)
	if errors.Is(err, personstore.ErrNotFound) || (err == nil && client.Role != models.RoleClient) {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "load client failed", err)
		return
	}

	res, err := h.Persons.ListHelpersInCity(ctx, client.CityCI, page, size)
	if err != nil {
		h.serverError(w, r, "list potential helpers failed", err)
		return
	}
	writeJSON(w, http.StatusOK, helpersResponse{PotentialHelpers: nonNil(res.Items), Total: res.Total})
}

// MatchedPairs handles GET /matchings/users, newest pairing first.
func (h *Handler) MatchedPairs(w http.ResponseWriter, r *http.Request) {
	page, size := h.pageParams(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Pairings.List(ctx, page, size)
	if err != nil {
		h.serverError(w, r, "list matched pairs failed", err)
		return
	}
	writeJSON(w, http.StatusOK, matchingsResponse{Matchings: nonNil(res.Items), Total: res.Total})
}

func decodePair(w http.ResponseWriter, r *http.Request) (pairInput, bool) {
	var in pairInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return in, false
	}
	if res := inputval.Validate(in); res.HasErrors() {
		writeError(w, http.StatusBadRequest, res.All())
		return in, false
	}
	return in, true
}

// Assign handles POST /matchings/assign.
//
// 404 when either person is missing, 409 when the roles are wrong or the
// client already has a helper.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	in, ok := decodePair(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	client, err := h.Persons.GetByID(ctx, in.ClientID)
	if err != nil {
		h.personError(w, r, "client", err)
		return
	}
	helper, err := h.Persons.GetByID(ctx, in.HelperID)
	if err != nil {
		h.personError(w, r, "helper", err)
		return
	}
	if client.Role != models.RoleClient || helper.Role != models.RoleHelper {
		writeError(w, http.StatusConflict, "client_id must name a client and helper_id a helper")
		return
	}

	switch existing, err := h.Pairings.GetByClient(ctx, client.ID); {
	case err == nil:
		h.Log.Info("assign refused: client already matched",
			zap.Int64("client_id", client.ID),
			zap.Int64("matching_id", existing.ID),
			zap.Int64("current_helper_id", existing.HelperID))
		writeError(w, http.StatusConflict, "client already has a helper")
		return
	case !errors.Is(err, pairingstore.ErrNotFound):
		h.serverError(w, r, "load client pairing failed", err)
		return
	}

	// The unique client index still settles two assigns racing past the check.
	p, err := h.Pairings.Create(ctx, client, helper)
	if errors.Is(err, pairingstore.ErrClientAlreadyMatched) {
		writeError(w, http.StatusConflict, "client already has a helper")
		return
	}
	if err != nil {
		h.serverError(w, r, "create pairing failed", err)
		return
	}

	h.Log.Info("helper assigned",
		zap.Int64("client_id", client.ID),
		zap.Int64("helper_id", helper.ID),
		zap.Int64("matching_id", p.ID))
	writeJSON(w, http.StatusCreated, p)
}

// Unassign handles POST /matchings/unassign. 404 when the two are not paired.
func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	in, ok := decodePair(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Pairings.Delete(ctx, in.ClientID, in.HelperID)
	if errors.Is(err, pairingstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "pairing not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "delete pairing failed", err)
		return
	}

	h.Log.Info("helper unassigned",
		zap.Int64("client_id", in.ClientID),
		zap.Int64("helper_id", in.HelperID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) personError(w http.ResponseWriter, r *http.Request, what string, err error) {
	if errors.Is(err, personstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found")
		return
	}
	h.serverError(w, r, "load "+what+" failed", err)
}
