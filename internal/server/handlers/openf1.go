package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gridwatch/gridwatch/internal/core/openf1"
)

// Records serves GET /api/v1/openf1/{endpoint}. Query string values that
// look numeric are forwarded as numbers so the cache key matches typed
// callers.
func (a *API) Records(w http.ResponseWriter, r *http.Request) {
	endpoint := chi.URLParam(r, "endpoint")
	params := openf1.ParamsFromValues(r.URL.Query())

	records, err := a.upstream.Query(r.Context(), endpoint, params)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if records == nil {
		records = []openf1.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Stats serves GET /api/v1/openf1/_stats.
func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.upstream.Stats())
}

// Purge serves POST /api/v1/openf1/_purge and drops every cached response.
func (a *API) Purge(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"purged": a.upstream.Purge()})
}
