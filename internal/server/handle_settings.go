package server

import (
	"net/http"

	"github.com/jawebhq/jaweb/internal/game"
)

func handleGetSettings(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := store.Settings(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

func handleUpdateSettings(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s game.Settings
		if err := readJSON(r, &s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if s.MinTeams < 1 || s.MaxTeams < s.MinTeams {
			writeError(w, http.StatusBadRequest, "invalid team limits")
			return
		}
		if s.MinCategories < 1 || s.MaxCategories < s.MinCategories {
			writeError(w, http.StatusBadRequest, "invalid category limits")
			return
		}

		updated, err := store.UpdateSettings(r.Context(), s)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}
