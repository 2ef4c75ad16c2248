// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/matchdesk/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the basic view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Status  int
	Message string
}

// toastData feeds the error_toast snippet used for HTMX failures.
type toastData struct {
	Level string
	Title string
}

// Handler is the errors feature handler.
// No DB needed; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound renders the friendly 404 page. Mounted as the router's NotFound.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	RenderNotFound(w, r, "The page you asked for does not exist.", "/matching")
}

// RenderServerError shows a 500 page with msg and a back link.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	renderPage(w, r, http.StatusInternalServerError, "Something went wrong", msg, backURL)
}

// RenderBadRequest shows a 400 page with msg and a back link.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	renderPage(w, r, http.StatusBadRequest, "Bad request", msg, backURL)
}

// RenderNotFound shows a 404 page with msg and a back link.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	renderPage(w, r, http.StatusNotFound, "Not found", msg, backURL)
}

func renderPage(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL string) {
	if backURL == "" {
		backURL = "/"
	}
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, title, backURL),
		Status:  status,
		Message: msg,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}

// renderToast answers an HTMX request with an error toast swapped into the
// page's toast region instead of the request's own target.
func renderToast(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("HX-Retarget", "#toasts")
	w.Header().Set("HX-Reswap", "beforeend")
	w.WriteHeader(status)
	templates.RenderSnippet(w, "error_toast", toastData{Level: "error", Title: msg})
}
