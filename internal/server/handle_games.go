package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jawebhq/jaweb/internal/game"
)

// CreateTeamRequest is one team in the create payload. Score is ignored:
// every team starts at zero. Color is optional; the server palette fills
// the gaps.
type CreateTeamRequest struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Color string `json:"color"`
}

type CreateGameRequest struct {
	Name               string              `json:"name"`
	Teams              []CreateTeamRequest `json:"teams"`
	SelectedCategories []int64             `json:"selectedCategories"`
	AnswerTimeFirst    int                 `json:"answerTimeFirst"`
	AnswerTimeSecond   int                 `json:"answerTimeSecond"`
}

type CreateGameResponse struct {
	GameID string `json:"gameId"`
}

// CategoryRef labels a selected category in game views.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// GameView is the full projection rendered by the game board.
type GameView struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Teams            []game.Team     `json:"teams"`
	Categories       []CategoryRef   `json:"categories"`
	Questions        []game.Question `json:"questions"`
	CurrentTeamIndex int             `json:"currentTeamIndex"`
	ViewedQuestions  []string        `json:"viewedQuestions"`
	AnswerTimeFirst  int             `json:"answerTimeFirst"`
	AnswerTimeSecond int             `json:"answerTimeSecond"`
	IsCompleted      bool            `json:"isCompleted"`
	IsSaved          bool            `json:"isSaved"`
	WinnerIndex      *int            `json:"winnerIndex"`
	CreatedAt        time.Time       `json:"createdAt"`
	LastUpdated      *time.Time      `json:"lastUpdated"`
	CompletedAt      *time.Time      `json:"completedAt"`
}

// GameSummary is the "my games" list entry.
type GameSummary struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Teams       []game.Team `json:"teams"`
	IsCompleted bool        `json:"isCompleted"`
	IsSaved     bool        `json:"isSaved"`
	CreatedAt   time.Time   `json:"createdAt"`
	LastUpdated *time.Time  `json:"lastUpdated"`
}

type ResultTeam struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Color    string `json:"color"`
	IsWinner bool   `json:"isWinner"`
}

// GameResult is the end-of-game projection.
type GameResult struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Teams       []ResultTeam  `json:"teams"`
	Categories  []CategoryRef `json:"categories"`
	WinningTeam string        `json:"winningTeam"`
	IsCompleted bool          `json:"isCompleted"`
	CompletedAt *time.Time    `json:"completedAt"`
}

func (req *CreateGameRequest) validate(settings game.Settings) string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if settings.MaxGameNameLength > 0 && len([]rune(req.Name)) > settings.MaxGameNameLength {
		return fmt.Sprintf("name must be at most %d characters", settings.MaxGameNameLength)
	}
	if len(req.Teams) < settings.MinTeams || len(req.Teams) > settings.MaxTeams {
		return fmt.Sprintf("between %d and %d teams required", settings.MinTeams, settings.MaxTeams)
	}
	for i, team := range req.Teams {
		req.Teams[i].Name = strings.TrimSpace(team.Name)
		if req.Teams[i].Name == "" {
			return "team names must not be empty"
		}
		if settings.MaxTeamNameLength > 0 && len([]rune(req.Teams[i].Name)) > settings.MaxTeamNameLength {
			return fmt.Sprintf("team names must be at most %d characters", settings.MaxTeamNameLength)
		}
	}
	if len(req.SelectedCategories) < settings.MinCategories || len(req.SelectedCategories) > settings.MaxCategories {
		return fmt.Sprintf("between %d and %d categories required", settings.MinCategories, settings.MaxCategories)
	}
	seen := map[int64]bool{}
	for _, id := range req.SelectedCategories {
		if seen[id] {
			return "duplicate category selected"
		}
		seen[id] = true
	}
	if req.AnswerTimeFirst <= 0 {
		req.AnswerTimeFirst = settings.DefaultFirstAnswerTime
	}
	if req.AnswerTimeSecond <= 0 {
		req.AnswerTimeSecond = settings.DefaultSecondAnswerTime
	}
	return ""
}

func handleCreateGame(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := userFrom(r)

		var req CreateGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		settings, err := store.Settings(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if msg := req.validate(settings); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		names := make([]string, len(req.Teams))
		for i, team := range req.Teams {
			names[i] = team.Name
		}
		s := game.NewSession(u.ID, req.Name, names, req.SelectedCategories, req.AnswerTimeFirst, req.AnswerTimeSecond)
		for i, team := range req.Teams {
			if team.Color != "" {
				s.Teams[i].Color = team.Color
			}
		}
		if err := store.CreateSession(r.Context(), s); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, CreateGameResponse{GameID: s.ID})
	}
}

func handleListGames(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := userFrom(r)

		sessions, err := store.ListSessions(r.Context(), u.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		summaries := []GameSummary{}
		for _, s := range sessions {
			summaries = append(summaries, GameSummary{
				ID:          s.ID,
				Name:        s.Name,
				Teams:       s.Teams,
				IsCompleted: s.IsCompleted,
				IsSaved:     s.IsSaved,
				CreatedAt:   s.CreatedAt,
				LastUpdated: s.LastUpdated,
			})
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

func handleGetGame(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := loadOwnedSession(r, store)
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

func handleGameResults(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := loadOwnedSession(r, store)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		winner := s.Winner()
		if s.WinnerIndex != nil {
			winner = *s.WinnerIndex
		}

		teams := make([]ResultTeam, len(s.Teams))
		for i, t := range s.Teams {
			teams[i] = ResultTeam{
				Name:     t.Name,
				Score:    t.Score,
				Color:    t.Color,
				IsWinner: i == winner,
			}
		}

		refs, err := categoryRefs(r.Context(), store, s.SelectedCategories)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, GameResult{
			ID:          s.ID,
			Name:        s.Name,
			Teams:       teams,
			Categories:  refs,
			WinningTeam: s.Teams[winner].Name,
			IsCompleted: s.IsCompleted,
			CompletedAt: s.CompletedAt,
		})
	}
}

// loadOwnedSession loads the {gameID} session and hides sessions owned by
// other users behind NotFound.
func loadOwnedSession(r *http.Request, store Store) (*game.Session, error) {
	u := userFrom(r)
	s, err := store.GetSession(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		return nil, err
	}
	if s.OwnerID != u.ID {
		return nil, ErrNotFound
	}
	return s, nil
}

func buildGameView(ctx context.Context, store Store, s *game.Session) (GameView, error) {
	refs, err := categoryRefs(ctx, store, s.SelectedCategories)
	if err != nil {
		return GameView{}, err
	}

	return GameView{
		ID:               s.ID,
		Name:             s.Name,
		Teams:            s.Teams,
		Categories:       refs,
		Questions:        s.Questions,
		CurrentTeamIndex: s.CurrentTeamIndex,
		ViewedQuestions:  s.ViewedQuestions,
		AnswerTimeFirst:  s.AnswerTimeFirst,
		AnswerTimeSecond: s.AnswerTimeSecond,
		IsCompleted:      s.IsCompleted,
		IsSaved:          s.IsSaved,
		WinnerIndex:      s.WinnerIndex,
		CreatedAt:        s.CreatedAt,
		LastUpdated:      s.LastUpdated,
		CompletedAt:      s.CompletedAt,
	}, nil
}

// categoryRefs resolves category ids to display labels. Unknown ids still
// render with a numbered fallback so stale sessions stay viewable.
func categoryRefs(ctx context.Context, store Store, ids []int64) ([]CategoryRef, error) {
	categories, err := store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	known := map[int64]CategoryRef{}
	for _, c := range categories {
		known[c.ID] = CategoryRef{ID: c.ID, Name: c.Name, Icon: c.Icon}
		for _, child := range c.Children {
			known[child.ID] = CategoryRef{ID: child.ID, Name: child.Name, Icon: child.Icon}
		}
	}

	refs := make([]CategoryRef, len(ids))
	for i, id := range ids {
		if ref, ok := known[id]; ok {
			refs[i] = ref
			continue
		}
		refs[i] = CategoryRef{ID: id, Name: fmt.Sprintf("فئة %d", id), Icon: "📋"}
	}
	return refs, nil
}
