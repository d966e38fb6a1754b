package handler

import (
	"errors"
	"net/http"

	"github.com/landing/backend/internal/apperror"
	"github.com/landing/backend/internal/logging"
)

// ErrorResponder is the terminal stage: it classifies an error and writes the
// error envelope. Traces are included only when exposeTrace is set, which the
// server derives from the environment at startup.
type ErrorResponder struct {
	exposeTrace bool
}

// NewErrorResponder creates an ErrorResponder. exposeTrace must be false in
// production.
func NewErrorResponder(exposeTrace bool) *ErrorResponder {
	return &ErrorResponder{exposeTrace: exposeTrace}
}

// Respond writes the envelope for err. It never panics and always writes.
func (e *ErrorResponder) Respond(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.As(err)
	status := appErr.Status()

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", string(appErr.Kind),
			"error", err,
		)
	} else {
		logger.Info("request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", string(appErr.Kind),
			"message", appErr.Message,
		)
	}

	body := &errorBody{Code: string(appErr.Kind), Message: appErr.Message}
	if e.exposeTrace {
		body.Trace = errorChain(err)
	}
	writeJSON(w, status, envelope{Success: false, Error: body})
}

// errorChain lists err and each error it wraps, outermost first.
func errorChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}
