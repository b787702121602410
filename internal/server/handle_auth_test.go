package server

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestRegisterAndMe(t *testing.T) {
	r := apiRouter(t, setupSQLiteStore(t))
	token := registerUser(t, r, "sara")

	w := doJSON(r, http.MethodGet, "/api/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var info UserInfo
	json.NewDecoder(w.Body).Decode(&info)
	if info.Username != "sara" {
		t.Errorf("expected username sara, got %q", info.Username)
	}
	if info.ID == "" {
		t.Error("expected a user id")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	r := apiRouter(t, setupSQLiteStore(t))
	registerUser(t, r, "sara")

	w := doJSON(r, http.MethodPost, "/api/auth/register", "",
		CredentialsRequest{Username: "sara", Password: "another"})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRegisterMissingFields(t *testing.T) {
	r := apiRouter(t, setupSQLiteStore(t))

	w := doJSON(r, http.MethodPost, "/api/auth/register", "",
		CredentialsRequest{Username: "  ", Password: ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestLogin(t *testing.T) {
	r := apiRouter(t, setupSQLiteStore(t))
	registerUser(t, r, "sara")

	w := doJSON(r, http.MethodPost, "/api/auth/login", "",
		CredentialsRequest{Username: "sara", Password: "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp AuthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Token == "" {
		t.Fatal("expected a session token")
	}
	if resp.User.Username != "sara" {
		t.Errorf("expected username sara, got %q", resp.User.Username)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	r := apiRouter(t, setupSQLiteStore(t))
	registerUser(t, r, "sara")

	w := doJSON(r, http.MethodPost, "/api/auth/login", "",
		CredentialsRequest{Username: "sara", Password: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	r := apiRouter(t, setupSQLiteStore(t))

	w := doJSON(r, http.MethodPost, "/api/auth/login", "",
		CredentialsRequest{Username: "nobody", Password: "secret123"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	r := apiRouter(t, setupSQLiteStore(t))
	token := registerUser(t, r, "sara")

	w := doJSON(r, http.MethodPost, "/api/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/api/auth/me", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", w.Code)
	}
}
