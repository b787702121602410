// Package game defines the trivia game domain: sessions, teams, the question
// grid, and the state transitions applied during play. It has zero external
// dependencies — everything here is pure Go.
package game

import "time"

// Difficulty levels for question slots. The numeric value doubles as the
// number of points a correct answer is worth.
const (
	DifficultyEasy   = 1
	DifficultyMedium = 2
	DifficultyHard   = 3
)

// teamColors is the palette assigned to teams in creation order.
var teamColors = []string{"#2563EB", "#DC2626", "#16A34A", "#9333EA"}

// TeamColor returns the display color for the team at the given index.
func TeamColor(index int) string {
	if index < 0 {
		index = 0
	}
	return teamColors[index%len(teamColors)]
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Team struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Color string `json:"color"`
}

// Question is one assignable slot in the session's board grid. ID is the
// slot's identity within the session; QuestionID points at the question bank
// and may be filled lazily when the slot is first opened.
type Question struct {
	ID         int   `json:"id"`
	QuestionID int64 `json:"questionId"`
	CategoryID int64 `json:"categoryId"`
	Difficulty int   `json:"difficulty"`
	TeamIndex  int   `json:"teamIndex"`
	IsAnswered bool  `json:"isAnswered"`
}

// Session is one playthrough of the trivia game.
type Session struct {
	ID                 string     `json:"id"`
	OwnerID            string     `json:"ownerId"`
	Name               string     `json:"name"`
	Teams              []Team     `json:"teams"`
	SelectedCategories []int64    `json:"selectedCategories"`
	CurrentTeamIndex   int        `json:"currentTeamIndex"`
	Questions          []Question `json:"questions"`
	ViewedQuestions    []string   `json:"viewedQuestions"`
	AnswerTimeFirst    int        `json:"answerTimeFirst"`
	AnswerTimeSecond   int        `json:"answerTimeSecond"`
	IsCompleted        bool       `json:"isCompleted"`
	IsSaved            bool       `json:"isSaved"`
	WinnerIndex        *int       `json:"winnerIndex"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"createdAt"`
	CompletedAt        *time.Time `json:"completedAt"`
	LastUpdated        *time.Time `json:"lastUpdated"`
}

// Category is a main question category with its subcategories.
type Category struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Icon     string        `json:"icon"`
	ImageURL string        `json:"imageUrl"`
	IsActive bool          `json:"isActive"`
	Children []Subcategory `json:"children"`
}

type Subcategory struct {
	ID       int64  `json:"id"`
	ParentID int64  `json:"parentId"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	ImageURL string `json:"imageUrl"`
	IsActive bool   `json:"isActive"`
}

// BankQuestion is an entry in the question bank, independent of any session.
type BankQuestion struct {
	ID            int64     `json:"id"`
	Text          string    `json:"text"`
	CorrectAnswer string    `json:"correctAnswer"`
	CategoryID    int64     `json:"categoryId"`
	SubcategoryID *int64    `json:"subcategoryId"`
	Difficulty    int       `json:"difficulty"`
	Points        int       `json:"points"`
	MediaType     string    `json:"mediaType,omitempty"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	VideoURL      string    `json:"videoUrl,omitempty"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Settings holds the tunable limits for session creation.
type Settings struct {
	MinCategories           int    `json:"minCategories"`
	MaxCategories           int    `json:"maxCategories"`
	MinTeams                int    `json:"minTeams"`
	MaxTeams                int    `json:"maxTeams"`
	MaxGameNameLength       int    `json:"maxGameNameLength"`
	MaxTeamNameLength       int    `json:"maxTeamNameLength"`
	DefaultFirstAnswerTime  int    `json:"defaultFirstAnswerTime"`
	DefaultSecondAnswerTime int    `json:"defaultSecondAnswerTime"`
	ModalTitle              string `json:"modalTitle"`
	PageDescription         string `json:"pageDescription"`
}

// DefaultSettings are applied when no settings row exists yet.
func DefaultSettings() Settings {
	return Settings{
		MinCategories:           4,
		MaxCategories:           8,
		MinTeams:                2,
		MaxTeams:                4,
		MaxGameNameLength:       30,
		MaxTeamNameLength:       20,
		DefaultFirstAnswerTime:  30,
		DefaultSecondAnswerTime: 15,
		ModalTitle:              "إعدادات اللعبة",
		PageDescription:         "اختبر معلوماتك ونافس أصدقاءك في أجواء جماعية مشوقة!",
	}
}
