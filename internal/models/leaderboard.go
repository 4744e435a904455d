package models

import "time"

type LeaderboardPeriod string

const (
	PeriodWeek    LeaderboardPeriod = "week"
	PeriodMonth   LeaderboardPeriod = "month"
	PeriodAllTime LeaderboardPeriod = "all_time"
)

// LeaderboardPeriods is the recompute order used by batch runs
var LeaderboardPeriods = []LeaderboardPeriod{PeriodWeek, PeriodMonth, PeriodAllTime}

// Window returns how far back completed sessions count. Zero means no limit.
func (p LeaderboardPeriod) Window() time.Duration {
	switch p {
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

func (p LeaderboardPeriod) IsValid() bool {
	switch p {
	case PeriodWeek, PeriodMonth, PeriodAllTime:
		return true
	}
	return false
}

type Leaderboard struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	UserID          uint              `json:"-" gorm:"not null;uniqueIndex:idx_leaderboard_user_period"`
	Period          LeaderboardPeriod `json:"period" gorm:"size:10;not null;uniqueIndex:idx_leaderboard_user_period;index:idx_leaderboard_period_rank,priority:1"`
	Rank            int               `json:"rank" gorm:"not null;index:idx_leaderboard_period_rank,priority:2"`
	Score           int               `json:"score" gorm:"not null"`
	QuestionsSolved int               `json:"questions_solved" gorm:"not null"`
	Accuracy        float64           `json:"accuracy" gorm:"not null"`
	UpdatedAt       time.Time         `json:"updated_at"`

	User User `json:"user" gorm:"foreignKey:UserID"`
}

func (Leaderboard) TableName() string {
	return "leaderboards"
}
