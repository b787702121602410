package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jawebhq/jaweb/internal/game"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"sqlite": setupSQLiteStore(t),
		"memory": NewMemStore(),
	}
}

func TestSessionLifecycle(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			s := game.NewSession("owner-1", "تحدي المساء", []string{"أ", "ب"}, []int64{1, 2, 3, 4}, 30, 15)
			if err := store.CreateSession(ctx, s); err != nil {
				t.Fatalf("create: %v", err)
			}
			if s.ID == "" {
				t.Fatal("expected an assigned id")
			}
			if s.Version != 1 {
				t.Fatalf("expected version 1, got %d", s.Version)
			}

			got, err := store.GetSession(ctx, s.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Name != "تحدي المساء" || len(got.Teams) != 2 {
				t.Errorf("round trip mismatch: %+v", got)
			}
			if len(got.Questions) != 4*2*3 {
				t.Errorf("expected 24 grid slots, got %d", len(got.Questions))
			}

			if _, err := store.GetSession(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestViewedLedgerSerializesEmpty(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			s := game.NewSession("owner-1", "لعبة", []string{"أ", "ب"}, []int64{1}, 30, 15)
			if err := store.CreateSession(ctx, s); err != nil {
				t.Fatalf("create: %v", err)
			}

			got, err := store.GetSession(ctx, s.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.ViewedQuestions == nil {
				t.Fatal("expected an empty ledger, got nil")
			}

			// Clients render the ledger directly: it must be [] on the
			// wire, never null.
			data, err := json.Marshal(got)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if !strings.Contains(string(data), `"viewedQuestions":[]`) {
				t.Errorf("expected viewedQuestions to serialize as [], got %s", data)
			}
		})
	}
}

func TestListSessionsByOwner(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, owner := range []string{"a", "a", "b"} {
				s := game.NewSession(owner, "لعبة", []string{"1", "2"}, []int64{1}, 30, 15)
				if err := store.CreateSession(ctx, s); err != nil {
					t.Fatalf("create: %v", err)
				}
			}

			mine, err := store.ListSessions(ctx, "a")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(mine) != 2 {
				t.Fatalf("expected 2 sessions for owner a, got %d", len(mine))
			}
		})
	}
}

func TestReplaceSessionVersionConflict(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			s := game.NewSession("owner-1", "سباق", []string{"أ", "ب"}, []int64{1}, 30, 15)
			if err := store.CreateSession(ctx, s); err != nil {
				t.Fatalf("create: %v", err)
			}

			// Two readers load the same version.
			first, err := store.GetSession(ctx, s.ID)
			if err != nil {
				t.Fatalf("get first: %v", err)
			}
			second, err := store.GetSession(ctx, s.ID)
			if err != nil {
				t.Fatalf("get second: %v", err)
			}

			first.Teams[0].Score = 100
			if err := store.ReplaceSession(ctx, first); err != nil {
				t.Fatalf("first replace: %v", err)
			}
			if first.Version != 2 {
				t.Errorf("expected version bump to 2, got %d", first.Version)
			}

			second.Teams[1].Score = 50
			err = store.ReplaceSession(ctx, second)
			if !errors.Is(err, ErrVersionConflict) {
				t.Fatalf("expected ErrVersionConflict, got %v", err)
			}

			// The stale write must not have landed.
			got, err := store.GetSession(ctx, s.ID)
			if err != nil {
				t.Fatalf("get after conflict: %v", err)
			}
			if got.Teams[0].Score != 100 || got.Teams[1].Score != 0 {
				t.Errorf("stale write leaked: %+v", got.Teams)
			}
		})
	}
}

func TestReplaceSessionMissing(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			s := game.NewSession("owner-1", "لعبة", []string{"أ", "ب"}, []int64{1}, 30, 15)
			s.ID = "missing"
			s.Version = 1
			if err := store.ReplaceSession(context.Background(), s); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestMutateSessionRetriesAfterConflict(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	s := game.NewSession("owner-1", "لعبة", []string{"أ", "ب"}, []int64{1}, 30, 15)
	if err := store.CreateSession(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	// The first apply races with a concurrent writer; the retry should land.
	calls := 0
	got, err := mutateSession(ctx, store, s.ID, func(cur *game.Session) error {
		calls++
		if calls == 1 {
			other, err := store.GetSession(ctx, s.ID)
			if err != nil {
				return err
			}
			other.Teams[1].Score = 10
			if err := store.ReplaceSession(ctx, other); err != nil {
				return err
			}
		}
		return cur.UpdateScore(0, 5)
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 apply calls, got %d", calls)
	}
	if got.Teams[0].Score != 5 || got.Teams[1].Score != 10 {
		t.Errorf("expected both writes to land, got %+v", got.Teams)
	}
}

func TestCategoryTreeAndDeleteInUse(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			parent, err := store.CreateCategory(ctx, CategoryRecord{Name: "علوم", Icon: "⚗️", IsActive: true})
			if err != nil {
				t.Fatalf("create parent: %v", err)
			}
			if _, err := store.CreateCategory(ctx, CategoryRecord{
				ParentID: &parent.ID, Name: "كيمياء", Icon: "⚗️", IsActive: true,
			}); err != nil {
				t.Fatalf("create child: %v", err)
			}

			categories, err := store.ListCategories(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(categories) != 1 {
				t.Fatalf("expected 1 root category, got %d", len(categories))
			}
			if len(categories[0].Children) != 1 || categories[0].Children[0].Name != "كيمياء" {
				t.Errorf("expected child under parent, got %+v", categories[0].Children)
			}

			if _, err := store.CreateQuestion(ctx, game.BankQuestion{
				Text: "سؤال", CorrectAnswer: "جواب", CategoryID: parent.ID,
				Difficulty: game.DifficultyEasy, Points: 100, IsActive: true,
			}); err != nil {
				t.Fatalf("create question: %v", err)
			}

			if err := store.DeleteCategory(ctx, parent.ID); !errors.Is(err, ErrCategoryInUse) {
				t.Errorf("expected ErrCategoryInUse, got %v", err)
			}
		})
	}
}

func TestPickQuestionStableSeed(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			cat, err := store.CreateCategory(ctx, CategoryRecord{Name: "علوم", IsActive: true})
			if err != nil {
				t.Fatalf("create category: %v", err)
			}
			for i := 0; i < 5; i++ {
				if _, err := store.CreateQuestion(ctx, game.BankQuestion{
					Text: "سؤال", CorrectAnswer: "جواب", CategoryID: cat.ID,
					Difficulty: game.DifficultyMedium, Points: 200, IsActive: true,
				}); err != nil {
					t.Fatalf("create question: %v", err)
				}
			}

			first, err := store.PickQuestion(ctx, cat.ID, game.DifficultyMedium, 7)
			if err != nil {
				t.Fatalf("pick: %v", err)
			}
			second, err := store.PickQuestion(ctx, cat.ID, game.DifficultyMedium, 7)
			if err != nil {
				t.Fatalf("pick again: %v", err)
			}
			if first.ID != second.ID {
				t.Errorf("same seed picked different questions: %d vs %d", first.ID, second.ID)
			}

			if _, err := store.PickQuestion(ctx, cat.ID, game.DifficultyHard, 7); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound for empty pool, got %v", err)
			}
		})
	}
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			settings, err := store.Settings(ctx)
			if err != nil {
				t.Fatalf("settings: %v", err)
			}
			if settings.MinTeams != 2 || settings.MaxTeams != 4 {
				t.Errorf("expected default team limits, got %+v", settings)
			}

			settings.MaxTeams = 6
			updated, err := store.UpdateSettings(ctx, settings)
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if updated.MaxTeams != 6 {
				t.Errorf("expected MaxTeams 6, got %d", updated.MaxTeams)
			}

			again, err := store.Settings(ctx)
			if err != nil {
				t.Fatalf("settings again: %v", err)
			}
			if again.MaxTeams != 6 {
				t.Errorf("update did not persist, got %d", again.MaxTeams)
			}
		})
	}
}

func TestUsernameTaken(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := store.CreateUser(ctx, "sara", "hash"); err != nil {
				t.Fatalf("create: %v", err)
			}
			if _, err := store.CreateUser(ctx, "sara", "hash2"); !errors.Is(err, ErrUsernameTaken) {
				t.Errorf("expected ErrUsernameTaken, got %v", err)
			}
		})
	}
}
