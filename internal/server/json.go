package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jawebhq/jaweb/internal/game"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps the error taxonomy to HTTP statuses: invalid input
// 400, missing records 404, terminal-state and lost-update violations 409,
// anything else 500.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, game.ErrCompleted):
		writeError(w, http.StatusConflict, "game already completed")
	case errors.Is(err, ErrVersionConflict):
		writeError(w, http.StatusConflict, "concurrent update, retry with fresh state")
	case errors.Is(err, ErrCategoryInUse):
		writeError(w, http.StatusConflict, "category still has questions")
	case errors.Is(err, ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username already taken")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
