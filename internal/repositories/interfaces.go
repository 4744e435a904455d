package repositories

import (
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	Category   *string                 `json:"category"`
	Topic      *models.Topic           `json:"topic"`
	Search     string                  `json:"search"` // title or description, case-insensitive
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`
	SortOrder  string                  `json:"sort_order"`
}

type QuizFilters struct {
	QuizType   *models.QuizType `json:"quiz_type"`
	ActiveOnly bool             `json:"active_only"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

type SessionFilters struct {
	Status *models.SessionStatus `json:"status"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// ===== SHARED HELPER STRUCTS =====

// AnswerOutcome is the graded result folded into a session's totals
type AnswerOutcome struct {
	Correct bool
	Score   int
}

// SessionClose describes a transition to completed or abandoned
type SessionClose struct {
	Status    models.SessionStatus
	EndedAt   time.Time
	TimeSpent int
}

// ===== SHARED STATISTICS STRUCTS =====

// AnswerTotals counts a user's answers across all of their sessions
type AnswerTotals struct {
	Total   int64 `json:"total"`
	Correct int64 `json:"correct"`
}

// UserDataCounts reports rows per table for the purge command
type UserDataCounts struct {
	Answers          int64 `json:"answers"`
	SessionQuestions int64 `json:"session_questions"`
	Sessions         int64 `json:"sessions"`
	Bookmarks        int64 `json:"bookmarks"`
	Leaderboard      int64 `json:"leaderboard"`
	Profiles         int64 `json:"profiles"`
	Users            int64 `json:"users"`
}
