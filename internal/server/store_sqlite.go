package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jawebhq/jaweb/internal/game"
)

// SQLiteStore is the durable Store. Game sessions are stored as one JSONB
// document per row with owner_id and version lifted into columns; the
// catalog (categories, questions, settings) uses plain relational columns.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// --- Users and auth tokens ---

func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (game.User, error) {
	id := newID()
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, password_hash)
		VALUES (?, ?, ?)
		RETURNING created_at
	`, id, username, passwordHash).Scan(&createdAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return game.User{}, ErrUsernameTaken
		}
		return game.User{}, err
	}
	return game.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: parseTime(createdAt)}, nil
}

func (s *SQLiteStore) UserByUsername(ctx context.Context, username string) (game.User, error) {
	var u game.User
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return game.User{}, ErrNotFound
	}
	u.CreatedAt = parseTime(createdAt)
	return u, err
}

func (s *SQLiteStore) CreateUserSession(ctx context.Context, userID string) (string, error) {
	token := newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_sessions (id, user_id) VALUES (?, ?)
	`, token, userID)
	return token, err
}

func (s *SQLiteStore) UserFromToken(ctx context.Context, token string) (game.User, error) {
	var u game.User
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.password_hash, u.created_at
		FROM user_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?
	`, token).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return game.User{}, ErrNotFound
	}
	u.CreatedAt = parseTime(createdAt)
	return u, err
}

func (s *SQLiteStore) DeleteUserSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE id = ?`, token)
	return err
}

// --- Game sessions ---

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *game.Session) error {
	sess.ID = newID()
	sess.Version = 1
	sess.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_sessions (id, owner_id, version, data) VALUES (?, ?, ?, jsonb(?))
	`, sess.ID, sess.OwnerID, sess.Version, string(data))
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*game.Session, error) {
	var data string
	var version int64
	err := s.db.QueryRowContext(ctx, `
		SELECT json(data), version FROM game_sessions WHERE id = ?
	`, id).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess game.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	sess.Version = version
	return &sess, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, ownerID string) ([]*game.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT json(data), version FROM game_sessions WHERE owner_id = ? ORDER BY rowid
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*game.Session
	for rows.Next() {
		var data string
		var version int64
		if err := rows.Scan(&data, &version); err != nil {
			return nil, err
		}
		var sess game.Session
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			return nil, err
		}
		sess.Version = version
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) ReplaceSession(ctx context.Context, sess *game.Session) error {
	prev := sess.Version
	sess.Version = prev + 1

	data, err := json.Marshal(sess)
	if err != nil {
		sess.Version = prev
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE game_sessions SET version = ?, data = jsonb(?)
		WHERE id = ? AND version = ?
	`, sess.Version, string(data), sess.ID, prev)
	if err != nil {
		sess.Version = prev
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		sess.Version = prev
		// Distinguish a missing row from a lost-update race.
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM game_sessions WHERE id = ?`, sess.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrVersionConflict
	}
	return nil
}

// --- Categories ---

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]game.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, name, icon, image_url, is_active FROM categories ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []game.Category{}
	index := map[int64]int{}
	var orphans []game.Subcategory

	for rows.Next() {
		var id int64
		var parentID sql.NullInt64
		var name, icon, imageURL string
		var isActive int
		if err := rows.Scan(&id, &parentID, &name, &icon, &imageURL, &isActive); err != nil {
			return nil, err
		}
		if !parentID.Valid {
			index[id] = len(categories)
			categories = append(categories, game.Category{
				ID: id, Name: name, Icon: icon, ImageURL: imageURL,
				IsActive: isActive != 0, Children: []game.Subcategory{},
			})
			continue
		}
		orphans = append(orphans, game.Subcategory{
			ID: id, ParentID: parentID.Int64, Name: name, Icon: icon,
			ImageURL: imageURL, IsActive: isActive != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows are ordered by id, so every parent precedes its children.
	for _, child := range orphans {
		if i, ok := index[child.ParentID]; ok {
			categories[i].Children = append(categories[i].Children, child)
		}
	}
	return categories, nil
}

func (s *SQLiteStore) CreateCategory(ctx context.Context, rec CategoryRecord) (CategoryRecord, error) {
	if rec.ParentID != nil {
		var exists int
		err := s.db.QueryRowContext(ctx, `
			SELECT 1 FROM categories WHERE id = ? AND parent_id IS NULL
		`, *rec.ParentID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return CategoryRecord{}, ErrNotFound
		}
		if err != nil {
			return CategoryRecord{}, err
		}
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (parent_id, name, icon, image_url, is_active)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, nullableID(rec.ParentID), rec.Name, rec.Icon, rec.ImageURL, boolInt(rec.IsActive)).Scan(&rec.ID)
	if err != nil {
		return CategoryRecord{}, err
	}
	return rec, nil
}

func (s *SQLiteStore) UpdateCategory(ctx context.Context, rec CategoryRecord) (CategoryRecord, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, icon = ?, image_url = ?, is_active = ?
		WHERE id = ?
	`, rec.Name, rec.Icon, rec.ImageURL, boolInt(rec.IsActive), rec.ID)
	if err != nil {
		return CategoryRecord{}, err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return CategoryRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, id int64) error {
	var questionCount int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM questions WHERE category_id = ? OR subcategory_id = ?
	`, id, id).Scan(&questionCount)
	if err != nil {
		return err
	}
	if questionCount > 0 {
		return ErrCategoryInUse
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Question bank ---

const questionColumns = `id, text, correct_answer, category_id, subcategory_id, difficulty,
	points, media_type, image_url, video_url, is_active, created_at, updated_at`

func scanQuestion(row interface{ Scan(...any) error }) (game.BankQuestion, error) {
	var q game.BankQuestion
	var subcategoryID sql.NullInt64
	var isActive int
	var createdAt, updatedAt string
	err := row.Scan(&q.ID, &q.Text, &q.CorrectAnswer, &q.CategoryID, &subcategoryID,
		&q.Difficulty, &q.Points, &q.MediaType, &q.ImageURL, &q.VideoURL,
		&isActive, &createdAt, &updatedAt)
	if err != nil {
		return q, err
	}
	if subcategoryID.Valid {
		q.SubcategoryID = &subcategoryID.Int64
	}
	q.IsActive = isActive != 0
	q.CreatedAt = parseTime(createdAt)
	q.UpdatedAt = parseTime(updatedAt)
	return q, nil
}

func (s *SQLiteStore) questionFilterClause(f QuestionFilters) (string, []any) {
	var conditions []string
	var args []any

	if f.CategoryID != 0 {
		conditions = append(conditions, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.SubcategoryID != 0 {
		conditions = append(conditions, "subcategory_id = ?")
		args = append(args, f.SubcategoryID)
	}
	if f.Difficulty != 0 {
		conditions = append(conditions, "difficulty = ?")
		args = append(args, f.Difficulty)
	}
	if f.Search != "" {
		conditions = append(conditions, "text LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = ?")
		args = append(args, boolInt(*f.IsActive))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (s *SQLiteStore) ListQuestions(ctx context.Context, f QuestionFilters) ([]game.BankQuestion, int, error) {
	where, args := s.questionFilterClause(f)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + questionColumns + " FROM questions" + where + " ORDER BY id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	questions := []game.BankQuestion{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, err
		}
		questions = append(questions, q)
	}
	return questions, total, rows.Err()
}

func (s *SQLiteStore) GetQuestion(ctx context.Context, id int64) (game.BankQuestion, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		"SELECT "+questionColumns+" FROM questions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return game.BankQuestion{}, ErrNotFound
	}
	return q, err
}

func (s *SQLiteStore) CreateQuestion(ctx context.Context, q game.BankQuestion) (game.BankQuestion, error) {
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO questions (text, correct_answer, category_id, subcategory_id, difficulty,
			points, media_type, image_url, video_url, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at
	`, q.Text, q.CorrectAnswer, q.CategoryID, nullableID(q.SubcategoryID), q.Difficulty,
		q.Points, q.MediaType, q.ImageURL, q.VideoURL, boolInt(q.IsActive),
	).Scan(&q.ID, &createdAt, &updatedAt)
	if err != nil {
		return game.BankQuestion{}, err
	}
	q.CreatedAt = parseTime(createdAt)
	q.UpdatedAt = parseTime(updatedAt)
	return q, nil
}

func (s *SQLiteStore) UpdateQuestion(ctx context.Context, q game.BankQuestion) (game.BankQuestion, error) {
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		UPDATE questions SET text = ?, correct_answer = ?, category_id = ?, subcategory_id = ?,
			difficulty = ?, points = ?, media_type = ?, image_url = ?, video_url = ?,
			is_active = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
		RETURNING created_at, updated_at
	`, q.Text, q.CorrectAnswer, q.CategoryID, nullableID(q.SubcategoryID), q.Difficulty,
		q.Points, q.MediaType, q.ImageURL, q.VideoURL, boolInt(q.IsActive), q.ID,
	).Scan(&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return game.BankQuestion{}, ErrNotFound
	}
	if err != nil {
		return game.BankQuestion{}, err
	}
	q.CreatedAt = parseTime(createdAt)
	q.UpdatedAt = parseTime(updatedAt)
	return q, nil
}

func (s *SQLiteStore) DeleteQuestion(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) QuestionStats(ctx context.Context) (QuestionStats, error) {
	var stats QuestionStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(is_active), 0),
			COALESCE(SUM(difficulty = 1), 0),
			COALESCE(SUM(difficulty = 2), 0),
			COALESCE(SUM(difficulty = 3), 0)
		FROM questions
	`).Scan(&stats.TotalQuestions, &stats.ActiveQuestions, &stats.Easy, &stats.Medium, &stats.Hard)
	if err != nil {
		return stats, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category_id, COUNT(*) FROM questions GROUP BY category_id ORDER BY category_id
	`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	stats.ByCategory = []CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.CategoryID, &c.Count); err != nil {
			return stats, err
		}
		stats.ByCategory = append(stats.ByCategory, c)
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) PickQuestion(ctx context.Context, categoryID int64, difficulty, seed int) (game.BankQuestion, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM questions
		WHERE category_id = ? AND difficulty = ? AND is_active = 1
	`, categoryID, difficulty).Scan(&count)
	if err != nil {
		return game.BankQuestion{}, err
	}
	if count == 0 {
		return game.BankQuestion{}, ErrNotFound
	}

	q, err := scanQuestion(s.db.QueryRowContext(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE category_id = ? AND difficulty = ? AND is_active = 1
		ORDER BY id LIMIT 1 OFFSET ?
	`, categoryID, difficulty, seed%count))
	if errors.Is(err, sql.ErrNoRows) {
		return game.BankQuestion{}, ErrNotFound
	}
	return q, err
}

// --- Settings ---

func (s *SQLiteStore) Settings(ctx context.Context) (game.Settings, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT json(data) FROM game_settings WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return game.DefaultSettings(), nil
	}
	if err != nil {
		return game.Settings{}, err
	}

	var settings game.Settings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return game.Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return settings, nil
}

func (s *SQLiteStore) UpdateSettings(ctx context.Context, settings game.Settings) (game.Settings, error) {
	data, err := json.Marshal(settings)
	if err != nil {
		return game.Settings{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO game_settings (id, data) VALUES (1, jsonb(?))
	`, string(data))
	return settings, err
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
