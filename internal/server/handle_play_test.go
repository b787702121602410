package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jawebhq/jaweb/internal/game"
)

func TestScoreRoundTrip(t *testing.T) {
	store := setupSQLiteStore(t)
	r := apiRouter(t, store)
	token := registerUser(t, r, "sara")
	gameID := createGame(t, r, store, token)

	w := doJSON(r, http.MethodPost, "/api/games/"+gameID+"/score", token,
		UpdateScoreRequest{TeamIndex: 1, ScoreChange: 200})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var view GameView
	json.NewDecoder(w.Body).Decode(&view)
	if view.Teams[1].Score != 200 {
		t.Errorf("expected score 200, got %d", view.Teams[1].Score)
	}

	// A fresh read must observe the write.
	w = doJSON(r, http.MethodGet, "/api/games/"+gameID, token, nil)
	json.NewDecoder(w.Body).Decode(&view)
	if view.Teams[1].Score != 200 {
		t.Errorf("score did not persist, got %d", view.Teams[1].Score)
	}
}

func TestScoreWirePayload(t *testing.T) {
	store := setupSQLiteStore(t)
	r := apiRouter(t, store)
	token := registerUser(t, r, "sara")
	gameID := createGame(t, r, store, token)

	// The client posts exactly this shape; the field name is part of the
	// wire contract.
	w := doJSON(r, http.MethodPost, "/api/games/"+gameID+"/score", token,
		map[string]any{"teamIndex": 1, "scoreChange": 200})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var view GameView
	w = doJSON(r, http.MethodGet, "/api/games/"+gameID, token, nil)
	json.NewDecoder(w.Body).Decode(&view)
	if view.Teams[1].Score != 200 {
		t.Errorf("scoreChange payload did not apply, score %d", view.Teams[1].Score)
	}
}

func TestScoreRejectsNegativeResult(t *testing.T) {
	store := setupSQLiteStore(t)
	r := apiRouter(t, store)
	token := registerUser(t, r, "sara")
	gameID := createGame(t, r, store, token)

	w := doJSON(r, http.MethodPost, "/api/games/"+gameID+"/score", token,
		UpdateScoreRequest{TeamIndex: 0, ScoreChange: -100})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// Score must be unchanged.
	var view GameView
	w = doJSON(r, http.MethodGet, "/api/games/"+gameID, token, nil)
	json.NewDecoder(w.Body).Decode(&view)
	if view.Teams[0].Score != 0 {
		t.Errorf("rejected delta leaked, score %d", view.Teams[0].Score)
	}
}

func TestScoreRejectsBadTeamIndex(t *testing.T) {
	store := setupSQLiteStore(t)
	r := apiRouter(t, store)
	token := registerUser(t, r, "sara")
	gameID := createGame(t, r, store, token)

	w := doJSON(r, http.MethodPost, "/api/games/"+gameID+"/score", token,
		UpdateScoreRequest{TeamIndex: 5, ScoreChange: 100})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAdvanceTurnEndpoint(t *testing.T) {
	store := setupSQLiteStore(t)
	r := apiRouter(t, store)
	token := registerUser(t, r, "sara")
	gameID := createGame(t, r, store, token)

	w := doJSON(r, http.MethodPost, "/api/games/"+gameID+"/turn", token,
		AdvanceTurnRequest{TeamIndex: 1})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var view GameView
	json.NewDecoder(w.Body).Decode(&view)
	if view.CurrentTeamIndex != 1 {
		t.Errorf("expected current team 1, got %d", view.CurrentTeamIndex)
	}

	w = doJSON(r, http.MethodPost, "/api/games/"+gameID+"/turn", token,
		AdvanceTurnRequest{TeamIndex: 9})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for out-of-range team, got %d", w.Code)
	}
}

func TestRecordAnswered(t *testing.T) {
	store := setupSQLiteStore(t)
	r := apiRouter(t, store)
	token := registerUser(t, r, "sara")
	gameID := createGame(t, r, store, token)

	var view GameView
	w := doJSON(r, http.MethodGet, "/api/games/"+gameID, token, nil)
	json.NewDecoder(w.Body).Decode(&view)

	slot := view.Questions[0]
	w = doJSON(r, http.MethodPost, "/api/games/"+gameID+"/answered", token,
		RecordAnsweredRequest{Questions: []game.Question{slot}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	json.NewDecoder(w.Body).Decode(&view)
	if !view.Questions[0].IsAnswered {
		t.Error("expected slot to be marked answered")
	}
	if len(view.ViewedQuestions) != 1 {
		t.Fatalf("expected 1 viewed entry, got %d", len(view.ViewedQuestions))
	}
	want := game.ViewedKey(slot.CategoryID, slot.Difficulty, slot.TeamIndex, slot.QuestionID)
	if view.ViewedQuestions[0] != want {
		t.Errorf("expected viewed key %q, got %q", want, view.ViewedQuestions[0])
	}

	// Posting the same slot again must not duplicate the ledger entry.
	w = doJSON(r, http.MethodPost, "/api/games/"+gameID+"/answered", token,
		RecordAnsweredRequest{Questions: []game.Question{slot}})
	json.NewDecoder(w.Body).Decode(&view)
	if len(view.ViewedQuestions) != 1 {
		t.Errorf("expected ledger to stay at 1 entry, got %d", len(view.ViewedQuestions))
	}
}

func TestEndGameMakesSessionReadOnly(t *testing.T) {
	store := setupSQLiteStore(t)
	r := apiRouter(t, store)
	token := registerUser(t, r, "sara")
	gameID := createGame(t, r, store, token)

	// Give team 1 the lead, then end.
	doJSON(r, http.MethodPost, "/api/games/"+gameID+"/score", token,
		UpdateScoreRequest{TeamIndex: 1, ScoreChange: 300})

	w := doJSON(r, http.MethodPost, "/api/games/"+gameID+"/end", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("end: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var view GameView
	json.NewDecoder(w.Body).Decode(&view)
	if !view.IsCompleted {
		t.Error("expected game to be completed")
	}
	if view.WinnerIndex == nil || *view.WinnerIndex != 1 {
		t.Errorf("expected winner index 1, got %v", view.WinnerIndex)
	}
	if view.CompletedAt == nil {
		t.Error("expected a completion timestamp")
	}

	// Every mutation after endGame is rejected with 409.
	for _, tc := range []struct {
		path    string
		payload any
	}{
		{"/score", UpdateScoreRequest{TeamIndex: 0, ScoreChange: 100}},
		{"/turn", AdvanceTurnRequest{TeamIndex: 0}},
		{"/answered", RecordAnsweredRequest{Questions: []game.Question{view.Questions[0]}}},
		{"/end", nil},
		{"/save", nil},
	} {
		w := doJSON(r, http.MethodPost, "/api/games/"+gameID+tc.path, token, tc.payload)
		if w.Code != http.StatusConflict {
			t.Errorf("%s after end: expected 409, got %d", tc.path, w.Code)
		}
	}
}

func TestEndGameTieGoesToEarliestTeam(t *testing.T) {
	store := setupSQLiteStore(t)
	r := apiRouter(t, store)
	token := registerUser(t, r, "sara")
	gameID := createGame(t, r, store, token)

	w := doJSON(r, http.MethodPost, "/api/games/"+gameID+"/end", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("end: expected 200, got %d", w.Code)
	}

	var view GameView
	json.NewDecoder(w.Body).Decode(&view)
	if view.WinnerIndex == nil || *view.WinnerIndex != 0 {
		t.Errorf("expected tie to resolve to team 0, got %v", view.WinnerIndex)
	}
}

func TestSaveGameSetsCheckpointOnly(t *testing.T) {
	store := setupSQLiteStore(t)
	r := apiRouter(t, store)
	token := registerUser(t, r, "sara")
	gameID := createGame(t, r, store, token)

	doJSON(r, http.MethodPost, "/api/games/"+gameID+"/score", token,
		UpdateScoreRequest{TeamIndex: 0, ScoreChange: 100})

	w := doJSON(r, http.MethodPost, "/api/games/"+gameID+"/save", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var view GameView
	json.NewDecoder(w.Body).Decode(&view)
	if !view.IsSaved {
		t.Error("expected saved flag")
	}
	if view.IsCompleted {
		t.Error("save must not complete the game")
	}
	if view.Teams[0].Score != 100 {
		t.Errorf("save must preserve scores, got %d", view.Teams[0].Score)
	}

	// A saved game stays playable.
	w = doJSON(r, http.MethodPost, "/api/games/"+gameID+"/score", token,
		UpdateScoreRequest{TeamIndex: 0, ScoreChange: 100})
	if w.Code != http.StatusOK {
		t.Errorf("expected saved game to accept mutations, got %d", w.Code)
	}
}

func TestGameResults(t *testing.T) {
	store := setupSQLiteStore(t)
	r := apiRouter(t, store)
	token := registerUser(t, r, "sara")
	gameID := createGame(t, r, store, token)

	doJSON(r, http.MethodPost, "/api/games/"+gameID+"/score", token,
		UpdateScoreRequest{TeamIndex: 1, ScoreChange: 500})
	doJSON(r, http.MethodPost, "/api/games/"+gameID+"/end", token, nil)

	w := doJSON(r, http.MethodGet, "/api/games/"+gameID+"/results", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result GameResult
	json.NewDecoder(w.Body).Decode(&result)
	if result.WinningTeam != "النسور" {
		t.Errorf("expected النسور to win, got %q", result.WinningTeam)
	}
	if !result.Teams[1].IsWinner || result.Teams[0].IsWinner {
		t.Errorf("winner flags wrong: %+v", result.Teams)
	}
	if !result.IsCompleted {
		t.Error("expected completed result")
	}
}

func TestQuestionDetail(t *testing.T) {
	store := setupSQLiteStore(t)
	r := apiRouter(t, store)
	token := registerUser(t, r, "sara")
	gameID := createGame(t, r, store, token)

	var view GameView
	w := doJSON(r, http.MethodGet, "/api/games/"+gameID, token, nil)
	json.NewDecoder(w.Body).Decode(&view)

	// Seeded banks hold one question per category and difficulty, so every
	// slot resolves.
	slot := view.Questions[0]
	w = doJSON(r, http.MethodGet, "/api/games/"+gameID+"/questions/1", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var detail QuestionDetail
	json.NewDecoder(w.Body).Decode(&detail)
	if detail.Slot.ID != slot.ID {
		t.Errorf("expected slot %d, got %d", slot.ID, detail.Slot.ID)
	}
	if detail.Question.Text == "" || detail.Question.CorrectAnswer == "" {
		t.Error("expected a resolved bank question")
	}
	if detail.Question.CategoryID != slot.CategoryID {
		t.Errorf("question category %d does not match slot %d",
			detail.Question.CategoryID, slot.CategoryID)
	}

	w = doJSON(r, http.MethodGet, "/api/games/"+gameID+"/questions/9999", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown slot, got %d", w.Code)
	}
}
