package game

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCompleted is returned when a gameplay mutation targets a session
	// that has already been ended. Completed sessions are read-only.
	ErrCompleted = errors.New("session already completed")

	// ErrInvalidArgument wraps rejected inputs: out-of-range team indexes,
	// score deltas that would drive a score negative, and the like.
	ErrInvalidArgument = errors.New("invalid argument")
)

// NewSession builds a fresh session with zeroed scores, assigned team colors,
// and the full question grid derived from the selected categories. The caller
// (the store) assigns ID, Version, and CreatedAt on insert.
func NewSession(ownerID, name string, teamNames []string, categories []int64, answerTimeFirst, answerTimeSecond int) *Session {
	teams := make([]Team, len(teamNames))
	for i, n := range teamNames {
		teams[i] = Team{Name: n, Score: 0, Color: TeamColor(i)}
	}

	return &Session{
		OwnerID:            ownerID,
		Name:               name,
		Teams:              teams,
		SelectedCategories: append([]int64(nil), categories...),
		CurrentTeamIndex:   0,
		Questions:          buildGrid(categories, len(teams)),
		ViewedQuestions:    []string{},
		AnswerTimeFirst:    answerTimeFirst,
		AnswerTimeSecond:   answerTimeSecond,
	}
}

// buildGrid derives the board: one slot per (category, team, difficulty)
// combination, difficulties 1 through 3, slot ids counting up from 1.
func buildGrid(categories []int64, teamCount int) []Question {
	var grid []Question
	id := 1
	for _, categoryID := range categories {
		for teamIndex := 0; teamIndex < teamCount; teamIndex++ {
			for difficulty := DifficultyEasy; difficulty <= DifficultyHard; difficulty++ {
				grid = append(grid, Question{
					ID:         id,
					QuestionID: int64(id),
					CategoryID: categoryID,
					Difficulty: difficulty,
					TeamIndex:  teamIndex,
					IsAnswered: false,
				})
				id++
			}
		}
	}
	return grid
}

// ViewedKey is the composite key recorded in the viewed-question ledger.
func ViewedKey(categoryID int64, difficulty, teamIndex int, questionID int64) string {
	return fmt.Sprintf("%d-%d-%d-%d", categoryID, difficulty, teamIndex, questionID)
}

// Key returns the slot's ledger key.
func (q Question) Key() string {
	return ViewedKey(q.CategoryID, q.Difficulty, q.TeamIndex, q.QuestionID)
}

// UpdateScore applies delta to one team's score. The delta is rejected when
// the team index is out of range or the resulting score would be negative;
// on rejection no field changes.
func (s *Session) UpdateScore(teamIndex, delta int) error {
	if s.IsCompleted {
		return ErrCompleted
	}
	if teamIndex < 0 || teamIndex >= len(s.Teams) {
		return fmt.Errorf("%w: team index %d out of range", ErrInvalidArgument, teamIndex)
	}
	next := s.Teams[teamIndex].Score + delta
	if next < 0 {
		return fmt.Errorf("%w: score for team %d cannot drop below zero", ErrInvalidArgument, teamIndex)
	}
	s.Teams[teamIndex].Score = next
	s.touch()
	return nil
}

// AdvanceTurn sets the current team. Any in-range index is accepted; turn
// order is not enforced.
func (s *Session) AdvanceTurn(teamIndex int) error {
	if s.IsCompleted {
		return ErrCompleted
	}
	if teamIndex < 0 || teamIndex >= len(s.Teams) {
		return fmt.Errorf("%w: team index %d out of range", ErrInvalidArgument, teamIndex)
	}
	s.CurrentTeamIndex = teamIndex
	s.touch()
	return nil
}

// RecordAnswered folds the answered slots into the viewed-question ledger
// and flips the matching grid slots. Idempotent: keys already in the ledger
// are skipped, so replaying the same batch changes nothing.
func (s *Session) RecordAnswered(answered []Question) error {
	if s.IsCompleted {
		return ErrCompleted
	}
	seen := make(map[string]bool, len(s.ViewedQuestions))
	for _, key := range s.ViewedQuestions {
		seen[key] = true
	}

	changed := false
	for _, q := range answered {
		if !q.IsAnswered {
			continue
		}
		key := q.Key()
		if !seen[key] {
			s.ViewedQuestions = append(s.ViewedQuestions, key)
			seen[key] = true
			changed = true
		}
		for i := range s.Questions {
			slot := &s.Questions[i]
			if slot.CategoryID == q.CategoryID && slot.Difficulty == q.Difficulty && slot.TeamIndex == q.TeamIndex && !slot.IsAnswered {
				slot.IsAnswered = true
				changed = true
			}
		}
	}
	if changed {
		s.touch()
	}
	return nil
}

// Winner returns the index of the team with the highest score. Ties resolve
// to the earliest team, matching the scoreboard's display order.
func (s *Session) Winner() int {
	winner, highest := 0, 0
	for i, t := range s.Teams {
		if t.Score > highest {
			highest = t.Score
			winner = i
		}
	}
	return winner
}

// EndGame transitions the session to its terminal state and records the
// winner. Every later gameplay mutation fails with ErrCompleted.
func (s *Session) EndGame() error {
	if s.IsCompleted {
		return ErrCompleted
	}
	winner := s.Winner()
	now := time.Now().UTC()
	s.IsCompleted = true
	s.WinnerIndex = &winner
	s.CompletedAt = &now
	s.LastUpdated = &now
	return nil
}

// SaveCheckpoint marks the session as explicitly saved so the client can
// resume it later. Gameplay fields are untouched.
func (s *Session) SaveCheckpoint() error {
	if s.IsCompleted {
		return ErrCompleted
	}
	s.IsSaved = true
	s.touch()
	return nil
}

// SlotByID finds the grid slot with the given slot id.
func (s *Session) SlotByID(id int) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

func (s *Session) touch() {
	now := time.Now().UTC()
	s.LastUpdated = &now
}
