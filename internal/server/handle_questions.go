package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jawebhq/jaweb/internal/game"
)

// QuestionListResponse wraps a page of bank questions with the unfiltered
// total so the admin table can paginate.
type QuestionListResponse struct {
	Questions []game.BankQuestion `json:"questions"`
	Total     int                 `json:"total"`
}

func questionFiltersFromQuery(r *http.Request) QuestionFilters {
	q := r.URL.Query()
	f := QuestionFilters{Search: strings.TrimSpace(q.Get("search"))}

	if v, err := strconv.ParseInt(q.Get("categoryId"), 10, 64); err == nil {
		f.CategoryID = v
	}
	if v, err := strconv.ParseInt(q.Get("subcategoryId"), 10, 64); err == nil {
		f.SubcategoryID = v
	}
	if v, err := strconv.Atoi(q.Get("difficulty")); err == nil {
		f.Difficulty = v
	}
	if raw := q.Get("isActive"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			f.IsActive = &v
		}
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		f.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		f.Offset = v
	}
	return f
}

func validateQuestion(q *game.BankQuestion) string {
	q.Text = strings.TrimSpace(q.Text)
	q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
	if q.Text == "" {
		return "text is required"
	}
	if q.CorrectAnswer == "" {
		return "correctAnswer is required"
	}
	if q.CategoryID == 0 {
		return "categoryId is required"
	}
	if q.Difficulty < game.DifficultyEasy || q.Difficulty > game.DifficultyHard {
		return "difficulty must be between 1 and 3"
	}
	if q.Points < 0 {
		return "points must not be negative"
	}
	if q.Points == 0 {
		q.Points = q.Difficulty * 100
	}
	return ""
}

func handleAdminListQuestions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, total, err := store.ListQuestions(r.Context(), questionFiltersFromQuery(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, QuestionListResponse{Questions: questions, Total: total})
	}
}

func handleAdminQuestionStats(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.QuestionStats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func handleAdminCreateQuestion(store Store, activity *ActivityHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q game.BankQuestion
		if err := readJSON(r, &q); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := validateQuestion(&q); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		created, err := store.CreateQuestion(r.Context(), q)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		activity.Broadcast(ActivityEvent{Type: "question_created", Payload: created})
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleAdminGetQuestion(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid question id")
			return
		}

		q, err := store.GetQuestion(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func handleAdminUpdateQuestion(store Store, activity *ActivityHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid question id")
			return
		}

		var q game.BankQuestion
		if err := readJSON(r, &q); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		q.ID = id
		if msg := validateQuestion(&q); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		updated, err := store.UpdateQuestion(r.Context(), q)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		activity.Broadcast(ActivityEvent{Type: "question_updated", Payload: updated})
		writeJSON(w, http.StatusOK, updated)
	}
}

func handleAdminDeleteQuestion(store Store, activity *ActivityHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid question id")
			return
		}

		if err := store.DeleteQuestion(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}

		activity.Broadcast(ActivityEvent{Type: "question_deleted", Payload: map[string]int64{"id": id}})
		w.WriteHeader(http.StatusNoContent)
	}
}
