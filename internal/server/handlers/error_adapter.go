package handlers

import (
	"net/http"
	"sync/atomic"

	apperrors "github.com/gridwatch/gridwatch/internal/errors"
)

// ErrorResponder writes err as an HTTP error response.
type ErrorResponder func(http.ResponseWriter, *http.Request, error)

var errorResponder atomic.Value

func init() {
	errorResponder.Store(ErrorResponder(apperrors.RespondWithError))
}

// SetHTTPErrorResponder lets the server package inject its central error
// handler. nil restores the default.
func SetHTTPErrorResponder(responder ErrorResponder) {
	if responder == nil {
		responder = apperrors.RespondWithError
	}
	errorResponder.Store(responder)
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	errorResponder.Load().(ErrorResponder)(w, r, err)
}
