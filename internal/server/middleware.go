package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jawebhq/jaweb/internal/game"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

// userAuthMiddleware resolves the Bearer token to a user and stores it in
// the request context.
func userAuthMiddleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := userFromRequest(r, store)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userFromRequest(r *http.Request, store Store) (game.User, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return game.User{}, ErrNotFound
	}
	return store.UserFromToken(r.Context(), token)
}

func userFrom(r *http.Request) game.User {
	return r.Context().Value(ctxKeyUser).(game.User)
}
