package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jawebhq/jaweb/internal/game"
)

// handleListCategories serves the game setup screen: active categories only,
// with inactive children pruned.
func handleListCategories(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := store.ListCategories(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		active := []game.Category{}
		for _, c := range categories {
			if !c.IsActive {
				continue
			}
			children := []game.Subcategory{}
			for _, child := range c.Children {
				if child.IsActive {
					children = append(children, child)
				}
			}
			c.Children = children
			active = append(active, c)
		}
		writeJSON(w, http.StatusOK, active)
	}
}

func handleAdminListCategories(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := store.ListCategories(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

func handleAdminCreateCategory(store Store, activity *ActivityHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec CategoryRecord
		if err := readJSON(r, &rec); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rec.Name = strings.TrimSpace(rec.Name)
		if rec.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		created, err := store.CreateCategory(r.Context(), rec)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		activity.Broadcast(ActivityEvent{Type: "category_created", Payload: created})
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleAdminUpdateCategory(store Store, activity *ActivityHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category id")
			return
		}

		var rec CategoryRecord
		if err := readJSON(r, &rec); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rec.ID = id
		rec.Name = strings.TrimSpace(rec.Name)
		if rec.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		updated, err := store.UpdateCategory(r.Context(), rec)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		activity.Broadcast(ActivityEvent{Type: "category_updated", Payload: updated})
		writeJSON(w, http.StatusOK, updated)
	}
}

func handleAdminDeleteCategory(store Store, activity *ActivityHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category id")
			return
		}

		if err := store.DeleteCategory(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}

		activity.Broadcast(ActivityEvent{Type: "category_deleted", Payload: map[string]int64{"id": id}})
		w.WriteHeader(http.StatusNoContent)
	}
}
