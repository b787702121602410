package server

import (
	"context"
	"errors"

	"github.com/jawebhq/jaweb/internal/game"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned by ReplaceSession when the stored
	// version advanced since the caller's GetSession. The read-modify-write
	// must be retried against fresh state.
	ErrVersionConflict = errors.New("session version conflict")

	ErrUsernameTaken = errors.New("username already taken")

	// ErrCategoryInUse blocks deleting a category that still has bank
	// questions attached to it.
	ErrCategoryInUse = errors.New("category has questions")
)

// CategoryRecord is the flat create/update shape for one categories row.
// ParentID nil means a main category; set, a subcategory of that parent.
type CategoryRecord struct {
	ID       int64  `json:"id"`
	ParentID *int64 `json:"parentId"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	ImageURL string `json:"imageUrl"`
	IsActive bool   `json:"isActive"`
}

// QuestionFilters narrows ListQuestions. Zero values mean "no filter".
type QuestionFilters struct {
	CategoryID    int64
	SubcategoryID int64
	Difficulty    int
	Search        string
	IsActive      *bool
	Limit         int
	Offset        int
}

type QuestionStats struct {
	TotalQuestions  int             `json:"totalQuestions"`
	ActiveQuestions int             `json:"activeQuestions"`
	Easy            int             `json:"easy"`
	Medium          int             `json:"medium"`
	Hard            int             `json:"hard"`
	ByCategory      []CategoryCount `json:"byCategory"`
}

type CategoryCount struct {
	CategoryID int64 `json:"categoryId"`
	Count      int   `json:"count"`
}

// Store is the persistence boundary: users and their auth tokens, the game
// session store, the question catalog, and settings. Two implementations
// exist — SQLiteStore for durable deployments and MemStore for lighter ones.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (game.User, error)
	UserByUsername(ctx context.Context, username string) (game.User, error)
	CreateUserSession(ctx context.Context, userID string) (token string, err error)
	UserFromToken(ctx context.Context, token string) (game.User, error)
	DeleteUserSession(ctx context.Context, token string) error

	// CreateSession assigns a unique id, version 1, and CreatedAt, then
	// persists s. Id allocation is serialized: concurrent calls never
	// produce the same id.
	CreateSession(ctx context.Context, s *game.Session) error
	GetSession(ctx context.Context, id string) (*game.Session, error)
	// ListSessions returns all sessions owned by ownerID in creation order.
	ListSessions(ctx context.Context, ownerID string) ([]*game.Session, error)
	// ReplaceSession overwrites the stored record iff the stored version
	// still equals s.Version; on success s.Version is incremented.
	ReplaceSession(ctx context.Context, s *game.Session) error

	ListCategories(ctx context.Context) ([]game.Category, error)
	CreateCategory(ctx context.Context, rec CategoryRecord) (CategoryRecord, error)
	UpdateCategory(ctx context.Context, rec CategoryRecord) (CategoryRecord, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListQuestions(ctx context.Context, f QuestionFilters) ([]game.BankQuestion, int, error)
	GetQuestion(ctx context.Context, id int64) (game.BankQuestion, error)
	CreateQuestion(ctx context.Context, q game.BankQuestion) (game.BankQuestion, error)
	UpdateQuestion(ctx context.Context, q game.BankQuestion) (game.BankQuestion, error)
	DeleteQuestion(ctx context.Context, id int64) error
	QuestionStats(ctx context.Context) (QuestionStats, error)
	// PickQuestion selects a bank question for a board cell; seed makes the
	// choice stable for a given slot.
	PickQuestion(ctx context.Context, categoryID int64, difficulty, seed int) (game.BankQuestion, error)

	Settings(ctx context.Context) (game.Settings, error)
	UpdateSettings(ctx context.Context, s game.Settings) (game.Settings, error)
}

// maxMutateRetries bounds the optimistic-concurrency retry loop.
const maxMutateRetries = 3

// mutateSession runs the load-apply-replace cycle for one session. A version
// conflict on replace reloads and reapplies; apply errors and store errors
// surface unchanged, leaving the stored session untouched.
func mutateSession(ctx context.Context, store Store, id string, apply func(*game.Session) error) (*game.Session, error) {
	var lastErr error
	for range maxMutateRetries {
		s, err := store.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := apply(s); err != nil {
			return nil, err
		}
		err = store.ReplaceSession(ctx, s)
		if errors.Is(err, ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, lastErr
}
