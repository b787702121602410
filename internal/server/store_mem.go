package server

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jawebhq/jaweb/internal/game"
)

// MemStore is the in-process Store used in lighter deployments and tests.
// All state lives behind one mutex; sessions are copied in and out so
// callers never alias stored data, and ReplaceSession applies the same
// version check as the SQLite store.
type MemStore struct {
	mu sync.RWMutex

	users       map[string]game.User // by id
	usersByName map[string]string    // username -> id
	tokens      map[string]string    // token -> user id

	sessions     map[string]*game.Session
	sessionOrder []string
	nextSession  int64

	categories   map[int64]CategoryRecord
	nextCategory int64
	questions    map[int64]game.BankQuestion
	nextQuestion int64

	settings game.Settings
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:       make(map[string]game.User),
		usersByName: make(map[string]string),
		tokens:      make(map[string]string),
		sessions:    make(map[string]*game.Session),
		categories:  make(map[int64]CategoryRecord),
		questions:   make(map[int64]game.BankQuestion),
		settings:    game.DefaultSettings(),
	}
}

func cloneSession(s *game.Session) *game.Session {
	c := *s
	c.Teams = append([]game.Team(nil), s.Teams...)
	c.SelectedCategories = append([]int64(nil), s.SelectedCategories...)
	c.Questions = append([]game.Question(nil), s.Questions...)
	// Keep the empty ledger an empty slice so it serializes as [] and not
	// null before the first answer.
	c.ViewedQuestions = make([]string, 0, len(s.ViewedQuestions))
	c.ViewedQuestions = append(c.ViewedQuestions, s.ViewedQuestions...)
	if s.WinnerIndex != nil {
		w := *s.WinnerIndex
		c.WinnerIndex = &w
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	if s.LastUpdated != nil {
		t := *s.LastUpdated
		c.LastUpdated = &t
	}
	return &c
}

// --- Users and auth tokens ---

func (m *MemStore) CreateUser(_ context.Context, username, passwordHash string) (game.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.usersByName[username]; taken {
		return game.User{}, ErrUsernameTaken
	}
	u := game.User{
		ID:           newID(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[u.ID] = u
	m.usersByName[username] = u.ID
	return u, nil
}

func (m *MemStore) UserByUsername(_ context.Context, username string) (game.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usersByName[username]
	if !ok {
		return game.User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *MemStore) CreateUserSession(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := newID()
	m.tokens[token] = userID
	return token, nil
}

func (m *MemStore) UserFromToken(_ context.Context, token string) (game.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userID, ok := m.tokens[token]
	if !ok {
		return game.User{}, ErrNotFound
	}
	return m.users[userID], nil
}

func (m *MemStore) DeleteUserSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, token)
	return nil
}

// --- Game sessions ---

func (m *MemStore) CreateSession(_ context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSession++
	s.ID = strconv.FormatInt(m.nextSession, 10)
	s.Version = 1
	s.CreatedAt = time.Now().UTC()

	m.sessions[s.ID] = cloneSession(s)
	m.sessionOrder = append(m.sessionOrder, s.ID)
	return nil
}

func (m *MemStore) GetSession(_ context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(s), nil
}

func (m *MemStore) ListSessions(_ context.Context, ownerID string) ([]*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sessions []*game.Session
	for _, id := range m.sessionOrder {
		if s := m.sessions[id]; s != nil && s.OwnerID == ownerID {
			sessions = append(sessions, cloneSession(s))
		}
	}
	return sessions, nil
}

func (m *MemStore) ReplaceSession(_ context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != s.Version {
		return ErrVersionConflict
	}
	s.Version++
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

// --- Categories ---

func (m *MemStore) ListCategories(_ context.Context) ([]game.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.categories))
	for id := range m.categories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	categories := []game.Category{}
	index := map[int64]int{}
	for _, id := range ids {
		rec := m.categories[id]
		if rec.ParentID != nil {
			continue
		}
		index[id] = len(categories)
		categories = append(categories, game.Category{
			ID: rec.ID, Name: rec.Name, Icon: rec.Icon, ImageURL: rec.ImageURL,
			IsActive: rec.IsActive, Children: []game.Subcategory{},
		})
	}
	for _, id := range ids {
		rec := m.categories[id]
		if rec.ParentID == nil {
			continue
		}
		if i, ok := index[*rec.ParentID]; ok {
			categories[i].Children = append(categories[i].Children, game.Subcategory{
				ID: rec.ID, ParentID: *rec.ParentID, Name: rec.Name,
				Icon: rec.Icon, ImageURL: rec.ImageURL, IsActive: rec.IsActive,
			})
		}
	}
	return categories, nil
}

func (m *MemStore) CreateCategory(_ context.Context, rec CategoryRecord) (CategoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ParentID != nil {
		parent, ok := m.categories[*rec.ParentID]
		if !ok || parent.ParentID != nil {
			return CategoryRecord{}, ErrNotFound
		}
	}
	m.nextCategory++
	rec.ID = m.nextCategory
	m.categories[rec.ID] = rec
	return rec, nil
}

func (m *MemStore) UpdateCategory(_ context.Context, rec CategoryRecord) (CategoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.categories[rec.ID]
	if !ok {
		return CategoryRecord{}, ErrNotFound
	}
	rec.ParentID = stored.ParentID // parent link is immutable
	m.categories[rec.ID] = rec
	return rec, nil
}

func (m *MemStore) DeleteCategory(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[id]; !ok {
		return ErrNotFound
	}
	for _, q := range m.questions {
		if q.CategoryID == id || (q.SubcategoryID != nil && *q.SubcategoryID == id) {
			return ErrCategoryInUse
		}
	}
	delete(m.categories, id)
	for childID, rec := range m.categories {
		if rec.ParentID != nil && *rec.ParentID == id {
			delete(m.categories, childID)
		}
	}
	return nil
}

// --- Question bank ---

func (m *MemStore) matchQuestion(q game.BankQuestion, f QuestionFilters) bool {
	if f.CategoryID != 0 && q.CategoryID != f.CategoryID {
		return false
	}
	if f.SubcategoryID != 0 && (q.SubcategoryID == nil || *q.SubcategoryID != f.SubcategoryID) {
		return false
	}
	if f.Difficulty != 0 && q.Difficulty != f.Difficulty {
		return false
	}
	if f.Search != "" && !strings.Contains(q.Text, f.Search) {
		return false
	}
	if f.IsActive != nil && q.IsActive != *f.IsActive {
		return false
	}
	return true
}

func (m *MemStore) ListQuestions(_ context.Context, f QuestionFilters) ([]game.BankQuestion, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := []game.BankQuestion{}
	for _, q := range m.questions {
		if m.matchQuestion(q, f) {
			matched = append(matched, q)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	if f.Limit > 0 {
		if f.Offset >= len(matched) {
			matched = []game.BankQuestion{}
		} else {
			end := min(f.Offset+f.Limit, len(matched))
			matched = matched[f.Offset:end]
		}
	}
	return matched, total, nil
}

func (m *MemStore) GetQuestion(_ context.Context, id int64) (game.BankQuestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.questions[id]
	if !ok {
		return game.BankQuestion{}, ErrNotFound
	}
	return q, nil
}

func (m *MemStore) CreateQuestion(_ context.Context, q game.BankQuestion) (game.BankQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextQuestion++
	q.ID = m.nextQuestion
	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now
	m.questions[q.ID] = q
	return q, nil
}

func (m *MemStore) UpdateQuestion(_ context.Context, q game.BankQuestion) (game.BankQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.questions[q.ID]
	if !ok {
		return game.BankQuestion{}, ErrNotFound
	}
	q.CreatedAt = stored.CreatedAt
	q.UpdatedAt = time.Now().UTC()
	m.questions[q.ID] = q
	return q, nil
}

func (m *MemStore) DeleteQuestion(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.questions[id]; !ok {
		return ErrNotFound
	}
	delete(m.questions, id)
	return nil
}

func (m *MemStore) QuestionStats(_ context.Context) (QuestionStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := QuestionStats{ByCategory: []CategoryCount{}}
	byCategory := map[int64]int{}
	for _, q := range m.questions {
		stats.TotalQuestions++
		if q.IsActive {
			stats.ActiveQuestions++
		}
		switch q.Difficulty {
		case game.DifficultyEasy:
			stats.Easy++
		case game.DifficultyMedium:
			stats.Medium++
		case game.DifficultyHard:
			stats.Hard++
		}
		byCategory[q.CategoryID]++
	}

	ids := make([]int64, 0, len(byCategory))
	for id := range byCategory {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		stats.ByCategory = append(stats.ByCategory, CategoryCount{CategoryID: id, Count: byCategory[id]})
	}
	return stats, nil
}

func (m *MemStore) PickQuestion(_ context.Context, categoryID int64, difficulty, seed int) (game.BankQuestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pool []game.BankQuestion
	for _, q := range m.questions {
		if q.CategoryID == categoryID && q.Difficulty == difficulty && q.IsActive {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		return game.BankQuestion{}, ErrNotFound
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	return pool[seed%len(pool)], nil
}

// --- Settings ---

func (m *MemStore) Settings(_ context.Context) (game.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings, nil
}

func (m *MemStore) UpdateSettings(_ context.Context, settings game.Settings) (game.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
	return settings, nil
}
