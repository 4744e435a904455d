package models

import "time"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageParams is the page-based pagination shared by every list endpoint
type PageParams struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// Normalize applies defaults and clamps page_size to MaxPageSize
func (p PageParams) Normalize() PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p PageParams) Limit() int {
	return p.Normalize().PageSize
}

func (p PageParams) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

type PaginatedResponse struct {
	Count      int64       `json:"count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	Results    interface{} `json:"results"`
}

// NewPaginatedResponse builds the list envelope for an already-fetched page
func NewPaginatedResponse(results interface{}, total int64, params PageParams) PaginatedResponse {
	p := params.Normalize()
	totalPages := int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	return PaginatedResponse{
		Count:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
		Results:    results,
	}
}

type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Path      string      `json:"path"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== AGGREGATES =====

// ChoiceCount is one bucket of the by-category / by-difficulty counts
type ChoiceCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// LeaderboardAggregate is one user's totals for a period before ranking
type LeaderboardAggregate struct {
	UserID          uint
	Score           int
	QuestionsSolved int
	TotalCorrect    int
}

// Accuracy is correct/solved*100, or 0 when nothing was solved
func (a LeaderboardAggregate) Accuracy() float64 {
	return Percentage(a.TotalCorrect, a.QuestionsSolved)
}

// CategoryAccuracy is a user's answer tally within one category
type CategoryAccuracy struct {
	Category string
	Total    int64
	Correct  int64
}

// Percentage returns part/total*100, or 0 when total is not positive
func Percentage[T int | int64](part, total T) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// AllModels lists every persisted entity in migration order
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Question{},
		&Quiz{},
		&QuizQuestion{},
		&QuizSession{},
		&SessionQuestion{},
		&Answer{},
		&UserProfile{},
		&Bookmark{},
		&Leaderboard{},
	}
}
