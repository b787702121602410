package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jawebhq/jaweb/internal/game"
)

type UpdateScoreRequest struct {
	TeamIndex   int `json:"teamIndex"`
	ScoreChange int `json:"scoreChange"`
}

type AdvanceTurnRequest struct {
	TeamIndex int `json:"teamIndex"`
}

type RecordAnsweredRequest struct {
	Questions []game.Question `json:"questions"`
}

// QuestionDetail pairs a board slot with the bank question chosen for it.
type QuestionDetail struct {
	Slot     game.Question     `json:"slot"`
	Question game.BankQuestion `json:"question"`
}

// requireOwnedSession is the pre-mutation ownership check. The mutators
// reload inside mutateSession, so this only gates access, not state.
func requireOwnedSession(r *http.Request, store Store) (string, error) {
	s, err := loadOwnedSession(r, store)
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

func handleUpdateScore(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requireOwnedSession(r, store)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		var req UpdateScoreRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		s, err := mutateSession(r.Context(), store, id, func(s *game.Session) error {
			return s.UpdateScore(req.TeamIndex, req.ScoreChange)
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}

		broker.Publish(id, GameEvent{
			Type:      "score_updated",
			TeamIndex: req.TeamIndex,
			Score:     s.Teams[req.TeamIndex].Score,
		})

		view, err := buildGameView(r.Context(), store, s)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleAdvanceTurn(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requireOwnedSession(r, store)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		var req AdvanceTurnRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		s, err := mutateSession(r.Context(), store, id, func(s *game.Session) error {
			return s.AdvanceTurn(req.TeamIndex)
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}

		broker.Publish(id, GameEvent{
			Type:      "turn_changed",
			TeamIndex: s.CurrentTeamIndex,
		})

		view, err := buildGameView(r.Context(), store, s)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleRecordAnswered(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requireOwnedSession(r, store)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		var req RecordAnsweredRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		s, err := mutateSession(r.Context(), store, id, func(s *game.Session) error {
			return s.RecordAnswered(req.Questions)
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}

		broker.Publish(id, GameEvent{Type: "question_answered"})

		view, err := buildGameView(r.Context(), store, s)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleEndGame(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requireOwnedSession(r, store)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		s, err := mutateSession(r.Context(), store, id, func(s *game.Session) error {
			return s.EndGame()
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}

		broker.Publish(id, GameEvent{
			Type:        "game_ended",
			WinnerIndex: *s.WinnerIndex,
		})

		view, err := buildGameView(r.Context(), store, s)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleSaveGame(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requireOwnedSession(r, store)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		s, err := mutateSession(r.Context(), store, id, func(s *game.Session) error {
			return s.SaveCheckpoint()
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}

		view, err := buildGameView(r.Context(), store, s)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleQuestionDetail(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := loadOwnedSession(r, store)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		slotID, err := strconv.Atoi(chi.URLParam(r, "questionID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid question id")
			return
		}
		slot, ok := s.SlotByID(slotID)
		if !ok {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		q, err := store.PickQuestion(r.Context(), slot.CategoryID, slot.Difficulty, slot.ID)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, QuestionDetail{Slot: slot, Question: q})
	}
}
