package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, checks map[string]Checker, spaDir string) {
	broker := NewBroker()
	activity := NewActivityHub(logger)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Jaweb API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, checks))
	r.Get("/ws/activity", handleActivityFeed(logger, activity))

	r.Post("/api/auth/register", handleRegister(store))
	r.Post("/api/auth/login", handleLogin(store))
	r.Post("/api/auth/logout", handleLogout(store))
	r.Get("/api/auth/me", handleMe(store))

	// Game setup screen.
	r.Get("/api/categories", handleListCategories(store))
	r.Get("/api/settings", handleGetSettings(store))

	// Gameplay — Bearer token except the SSE stream, which authenticates
	// via query parameter because EventSource cannot set headers.
	r.Route("/api/games", func(r chi.Router) {
		r.Get("/{gameID}/events", handleEvents(store, broker))

		r.Group(func(r chi.Router) {
			r.Use(userAuthMiddleware(store))
			r.Post("/", handleCreateGame(store))
			r.Get("/", handleListGames(store))
			r.Get("/{gameID}", handleGetGame(store))
			r.Get("/{gameID}/results", handleGameResults(store))
			r.Get("/{gameID}/questions/{questionID}", handleQuestionDetail(store))
			r.Post("/{gameID}/score", handleUpdateScore(store, broker))
			r.Post("/{gameID}/turn", handleAdvanceTurn(store, broker))
			r.Post("/{gameID}/answered", handleRecordAnswered(store, broker))
			r.Post("/{gameID}/end", handleEndGame(store, broker))
			r.Post("/{gameID}/save", handleSaveGame(store))
		})
	})

	// Admin back-office.
	r.Route("/api/admin", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", handleAdminListCategories(store))
			r.Post("/", handleAdminCreateCategory(store, activity))
			r.Put("/{categoryID}", handleAdminUpdateCategory(store, activity))
			r.Delete("/{categoryID}", handleAdminDeleteCategory(store, activity))
		})
		r.Route("/questions", func(r chi.Router) {
			r.Get("/", handleAdminListQuestions(store))
			r.Get("/stats", handleAdminQuestionStats(store))
			r.Post("/", handleAdminCreateQuestion(store, activity))
			r.Get("/{questionID}", handleAdminGetQuestion(store))
			r.Put("/{questionID}", handleAdminUpdateQuestion(store, activity))
			r.Delete("/{questionID}", handleAdminDeleteQuestion(store, activity))
		})
		r.Put("/settings", handleUpdateSettings(store))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
