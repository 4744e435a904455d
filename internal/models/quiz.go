package models

import "time"

type QuizType string

const (
	QuizPractice QuizType = "practice"
	QuizTimed    QuizType = "timed"
	QuizMock     QuizType = "mock"
)

var QuizTypes = []Choice{
	{Value: string(QuizPractice), Name: "Practice"},
	{Value: string(QuizTimed), Name: "Timed"},
	{Value: string(QuizMock), Name: "Mock Interview"},
}

type Quiz struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	QuizType    QuizType        `json:"quiz_type" gorm:"size:20;not null;index"`
	TimeLimit   int             `json:"time_limit" gorm:"not null"` // minutes, 0 = no limit
	Difficulty  DifficultyLevel `json:"difficulty" gorm:"size:10"`
	Category    string          `json:"category" gorm:"size:50"`
	IsActive    bool            `json:"is_active" gorm:"not null;index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Questions []QuizQuestion `json:"questions,omitempty" gorm:"foreignKey:QuizID"`

	QuestionsCount int64 `json:"questions_count" gorm:"-"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizQuestion orders a question inside a quiz
type QuizQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	QuizID     uint `json:"quiz_id" gorm:"not null;uniqueIndex:idx_quiz_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_quiz_question"`
	Order      int  `json:"order" gorm:"column:sort_order;not null"`

	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}
