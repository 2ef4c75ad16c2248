// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger logs a handler failure and answers the request with a
// friendly page (or, for HTMX requests, a toast).
//
// msg and err go to the log; userMsg is what the operator sees.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger returns an ErrorLogger writing to logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
}

// LogServerError logs at error level and renders a 500 page.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Error(msg, e.fields(r, err)...)
	RenderServerError(w, r, userMsg, backURL)
}

// LogBadRequest logs at warn level and renders a 400 page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Warn(msg, e.fields(r, err)...)
	RenderBadRequest(w, r, userMsg, backURL)
}

// HTMXLogServerError logs at error level and answers with a 500 toast.
// Non-HTMX requests fall back to LogServerError.
func (e *ErrorLogger) HTMXLogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	if r.Header.Get("HX-Request") != "true" {
		e.LogServerError(w, r, msg, err, userMsg, backURL)
		return
	}
	e.Log.Error(msg, e.fields(r, err)...)
	renderToast(w, http.StatusInternalServerError, userMsg)
}

// HTMXLogBadRequest logs at warn level and answers with a 400 toast.
// Non-HTMX requests fall back to LogBadRequest.
func (e *ErrorLogger) HTMXLogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	if r.Header.Get("HX-Request") != "true" {
		e.LogBadRequest(w, r, msg, err, userMsg, backURL)
		return
	}
	e.Log.Warn(msg, e.fields(r, err)...)
	renderToast(w, http.StatusBadRequest, userMsg)
}
