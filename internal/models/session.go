package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionStarted    SessionStatus = "started"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

// IsOpen reports whether answers may still be submitted
func (s SessionStatus) IsOpen() bool {
	return s == SessionStarted || s == SessionInProgress
}

// OpenSessionStatuses is used in SQL guards on session updates
var OpenSessionStatuses = []SessionStatus{SessionStarted, SessionInProgress}

type QuizSession struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	UserID    uint     `json:"user_id" gorm:"not null;index:idx_sessions_user_created,priority:1"`
	QuizID    *uint    `json:"quiz_id" gorm:"index"`
	Title     string   `json:"title" gorm:"size:255"`
	QuizType  QuizType `json:"quiz_type" gorm:"size:20"`
	TimeLimit int      `json:"time_limit"`

	Status SessionStatus `json:"status" gorm:"size:20;default:started;index"`

	// Scoring
	TotalScore     int     `json:"total_score" gorm:"default:0"`
	TotalQuestions int     `json:"total_questions" gorm:"default:0"`
	CorrectAnswers int     `json:"correct_answers" gorm:"default:0"`
	WrongAnswers   int     `json:"wrong_answers" gorm:"default:0"`
	Accuracy       float64 `json:"accuracy" gorm:"default:0"`

	// Timing
	TimeStarted time.Time  `json:"time_started"`
	TimeEnded   *time.Time `json:"time_ended" gorm:"index"`
	TimeSpent   int        `json:"time_spent"` // seconds

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_sessions_user_created,priority:2"`
	UpdatedAt time.Time `json:"updated_at"`

	Quiz      *Quiz             `json:"-" gorm:"foreignKey:QuizID"`
	Questions []SessionQuestion `json:"questions,omitempty" gorm:"foreignKey:SessionID"`
	Answers   []Answer          `json:"answers,omitempty" gorm:"foreignKey:SessionID"`
}

func (QuizSession) TableName() string {
	return "quiz_sessions"
}

// DisplayName is the custom title or the quiz name
func (s *QuizSession) DisplayName() string {
	if s.Title != "" {
		return s.Title
	}
	if s.Quiz != nil {
		return s.Quiz.Name
	}
	return "Quiz"
}

// SessionQuestion is the frozen question set of a session
type SessionQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	SessionID  uint `json:"session_id" gorm:"not null;uniqueIndex:idx_session_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_session_question"`
	Order      int  `json:"order" gorm:"column:sort_order;not null"`

	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (SessionQuestion) TableName() string {
	return "session_questions"
}

// TestResult is one entry of Answer.TestResults
type TestResult struct {
	Input    interface{} `json:"input"`
	Expected interface{} `json:"expected"`
	Passed   bool        `json:"passed"`
	Output   interface{} `json:"output"`
}

// Answer is append-only
type Answer struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	SessionID   uint           `json:"session_id" gorm:"not null;index"`
	QuestionID  uint           `json:"question" gorm:"not null;index"`
	UserCode    string         `json:"user_code" gorm:"type:text;not null"`
	IsCorrect   bool           `json:"is_correct" gorm:"default:false"`
	Score       int            `json:"score" gorm:"default:0"`
	Feedback    string         `json:"feedback" gorm:"type:text"`
	TestResults datatypes.JSON `json:"test_results"`
	SubmittedAt time.Time      `json:"submitted_at" gorm:"autoCreateTime"`
}

func (Answer) TableName() string {
	return "answers"
}
