package models

import (
	"time"

	"gorm.io/datatypes"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Username     string   `json:"username" gorm:"uniqueIndex;not null;size:150"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	FirstName    string   `json:"first_name" gorm:"size:150"`
	LastName     string   `json:"last_name" gorm:"size:150"`
	PasswordHash string   `json:"-" gorm:"size:255"`
	Role         UserRole `json:"role" gorm:"size:20;default:user"`

	// External identity subject when the account came from SSO
	ExternalID *string `json:"-" gorm:"size:255;index"`

	ResetToken          *string    `json:"-" gorm:"size:64;index"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user may manage the catalog
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserProfile is derived from sessions and answers; the stats fields are
// overwritten on every recompute.
type UserProfile struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"-" gorm:"uniqueIndex;not null"`

	TotalQuestionsSolved  int     `json:"total_questions_solved" gorm:"default:0"`
	TotalQuizzesCompleted int     `json:"total_quizzes_completed" gorm:"default:0"`
	TotalCorrectAnswers   int     `json:"total_correct_answers" gorm:"default:0"`
	OverallAccuracy       float64 `json:"overall_accuracy" gorm:"default:0"`

	// category -> accuracy
	WeakAreas   datatypes.JSON `json:"weak_areas"`
	StrongAreas datatypes.JSON `json:"strong_areas"`

	PreferredDifficulty DifficultyLevel `json:"preferred_difficulty" gorm:"size:10;default:medium"`
	PreferredTopic      Topic           `json:"preferred_topic" gorm:"size:20;default:dsa"`

	LastPracticeDate    *time.Time `json:"last_practice_date"`
	NotificationEnabled bool       `json:"notification_enabled" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"user" gorm:"foreignKey:UserID"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// NewUserProfile returns a profile with the default preferences and empty area maps
func NewUserProfile(userID uint) *UserProfile {
	return &UserProfile{
		UserID:              userID,
		WeakAreas:           datatypes.JSON("{}"),
		StrongAreas:         datatypes.JSON("{}"),
		PreferredDifficulty: DifficultyMedium,
		PreferredTopic:      TopicDSA,
		NotificationEnabled: true,
	}
}

type Bookmark struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"-" gorm:"not null;uniqueIndex:idx_bookmark_user_question"`
	QuestionID uint      `json:"question_id" gorm:"not null;uniqueIndex:idx_bookmark_user_question"`
	Notes      string    `json:"notes" gorm:"type:text"`
	IsSolved   bool      `json:"is_solved" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}
