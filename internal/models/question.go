package models

import (
	"time"

	"gorm.io/datatypes"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// Difficulties lists every difficulty in display order
var Difficulties = []Choice{
	{Value: string(DifficultyEasy), Name: "Easy"},
	{Value: string(DifficultyMedium), Name: "Medium"},
	{Value: string(DifficultyHard), Name: "Hard"},
}

type Topic string

const (
	TopicDSA      Topic = "dsa"
	TopicOOP      Topic = "oop"
	TopicPF       Topic = "pf"
	TopicDatabase Topic = "database"
)

var Topics = []Choice{
	{Value: string(TopicDSA), Name: "Data Structures & Algorithms"},
	{Value: string(TopicOOP), Name: "Object-Oriented Programming"},
	{Value: string(TopicPF), Name: "Programming Fundamentals"},
	{Value: string(TopicDatabase), Name: "Database Systems"},
}

// Categories is the closed set of question categories. Stat aggregation and the
// by-category counts iterate it in this order.
var Categories = []Choice{
	{Value: "arrays", Name: "Arrays"},
	{Value: "strings", Name: "Strings"},
	{Value: "linked_lists", Name: "Linked Lists"},
	{Value: "trees", Name: "Trees"},
	{Value: "graphs", Name: "Graphs"},
	{Value: "dynamic_programming", Name: "Dynamic Programming"},
	{Value: "sorting", Name: "Sorting"},
	{Value: "hash_tables", Name: "Hash Tables"},
	{Value: "heap", Name: "Heap"},
	{Value: "queue_stack", Name: "Queue/Stack"},
	{Value: "databases", Name: "Database Systems"},
	{Value: "oop", Name: "OOP"},
	{Value: "system_design", Name: "System Design"},
	{Value: "bit_manipulation", Name: "Bit Manipulation"},
	{Value: "math", Name: "Math"},
}

// Choice is a stored value with its display name
type Choice struct {
	Value string `json:"value"`
	Name  string `json:"name"`
}

// IsValidChoice reports whether value is one of choices
func IsValidChoice(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

// TestCase is one input/expected-output pair stored in Question.TestCases
type TestCase struct {
	Input  interface{} `json:"input"`
	Output interface{} `json:"output"`
}

type Question struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Title       string          `json:"title" gorm:"size:255;not null;index"`
	Description string          `json:"description" gorm:"type:text"`
	Topic       Topic           `json:"topic" gorm:"size:20;not null;index"`
	Category    string          `json:"category" gorm:"size:50;not null;index:idx_questions_difficulty_category,priority:2"`
	Difficulty  DifficultyLevel `json:"difficulty" gorm:"size:10;not null;index:idx_questions_difficulty_category,priority:1"`

	// Code
	TemplateCode string  `json:"template_code" gorm:"type:text"`
	SolutionCode string  `json:"solution_code,omitempty" gorm:"type:text"`
	Explanation  string  `json:"explanation" gorm:"type:text"`
	VideoURL     *string `json:"video_url" gorm:"size:500"`

	// Ordered list of TestCase
	TestCases datatypes.JSON `json:"test_cases"`

	// Metadata
	SolvedCount         int       `json:"solved_count" gorm:"default:0"`
	AvgDifficultyRating float64   `json:"avg_difficulty_rating" gorm:"default:0"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// Summary strips the solution so list views do not leak it
func (q Question) Summary() Question {
	q.SolutionCode = ""
	return q
}
