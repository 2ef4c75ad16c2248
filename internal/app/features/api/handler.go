// internal/app/features/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	pairingstore "github.com/dalemusser/matchdesk/internal/app/store/pairings"
	personstore "github.com/dalemusser/matchdesk/internal/app/store/persons"
	"github.com/dalemusser/matchdesk/internal/app/system/paging"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the JSON backend the matching desk talks to.
type Handler struct {
	Persons  *personstore.Store
	Pairings *pairingstore.Store
	PageSize int
	Log      *zap.Logger
}

// NewHandler builds the API handler over db. pageSize is the default "size"
// for listings that do not send one.
func NewHandler(db *mongo.Database, pageSize int, logger *zap.Logger) *Handler {
	if pageSize < 1 {
		pageSize = paging.PageSize
	}
	return &Handler{
		Persons:  personstore.New(db),
		Pairings: pairingstore.New(db),
		PageSize: pageSize,
		Log:      logger,
	}
}

var errBadID = errors.New("invalid id")

// writeJSON encodes v with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers {"error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serverError logs err and answers a generic 500.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.Log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// idParam parses a positive int64 URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, errBadID
	}
	return id, nil
}

// pageParams reads page and size, applying the handler's default size.
func (h *Handler) pageParams(r *http.Request) (int, int) {
	return paging.ParsePage(r), paging.ParseSize(r, h.PageSize)
}

// decode reads a JSON body into v. Fields v does not name are ignored, so a
// whole Person record can be sent back as an update.
func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
