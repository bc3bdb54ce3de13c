// Package httpapi builds the chi router the example backend (cmd/server,
// cmd/lambda) serves: REST handlers for the things resource the default
// HTTP base query talks to, plus a devtools endpoint exposing the live
// root state tree.
//
// Grounded on interfaces/http/rest.NewRouter (one router builder shared by
// both the standalone server and the Lambda entrypoint).
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"fluxstate/di"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the complete chi.Mux for container.
func NewRouter(container *di.Container) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Route("/things", func(r chi.Router) {
		r.Get("/{id}", getThingHandler(container))
		r.Put("/{id}", renameThingHandler(container))
	})

	r.Get("/devtools/state", devtoolsStateHandler(container))

	return r
}

// @Summary Get a thing by id
// @Router /things/{id} [get]
func getThingHandler(container *di.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		thing, err := container.ThingLookup.Lookup(req.Context(), id)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, thing)
	}
}

// @Summary Rename a thing
// @Router /things/{id} [put]
func renameThingHandler(container *di.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		var body struct {
			Name string `json:"Name"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
			return
		}
		thing, err := container.ThingLookup.Rename(req.Context(), id, body.Name)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, thing)
	}
}

// @Summary Dump the live root state tree
// @Router /devtools/state [get]
func devtoolsStateHandler(container *di.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		state, err := container.Store.GetState()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
