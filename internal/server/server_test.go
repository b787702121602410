package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/jawebhq/jaweb/internal/database"
	"github.com/jawebhq/jaweb/internal/migrations"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewSQLiteStore(db)
}

// apiRouter wires the full route table against the given store, seeded with
// the default catalog.
func apiRouter(t *testing.T, store Store) *chi.Mux {
	t.Helper()

	if err := Seed(context.Background(), testLogger(), store); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	r := chi.NewRouter()
	addRoutes(r, testLogger(), store, map[string]Checker{}, "")
	return r
}

// registerUser creates an account through the API and returns its token.
func registerUser(t *testing.T, r http.Handler, username string) string {
	t.Helper()

	body, _ := json.Marshal(CredentialsRequest{Username: username, Password: "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp AuthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Token == "" {
		t.Fatal("register: expected a session token")
	}
	return resp.Token
}

// createGame creates a two-team game over the seeded categories and returns
// its id.
func createGame(t *testing.T, r http.Handler, store Store, token string) string {
	t.Helper()

	categories, err := store.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) < 4 {
		t.Fatalf("expected at least 4 seeded categories, got %d", len(categories))
	}
	ids := []int64{}
	for _, c := range categories[:4] {
		ids = append(ids, c.ID)
	}

	body, _ := json.Marshal(CreateGameRequest{
		Name:               "ليلة الجمعة",
		Teams:              []CreateTeamRequest{{Name: "الصقور"}, {Name: "النسور"}},
		SelectedCategories: ids,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/games", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("create game: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp CreateGameResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.GameID == "" {
		t.Fatal("create game: expected a game id")
	}
	return resp.GameID
}

// doJSON sends an authenticated JSON request and returns the recorder.
func doJSON(r http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
