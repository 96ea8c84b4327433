package leaderboard

import "github.com/google/uuid"

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

type Entry struct {
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	Username      string    `json:"username" db:"username"`
	ImageURL      *string   `json:"image_url" db:"image_url"`
	Points        int       `json:"points" db:"points"`
	ActivityCount int       `json:"activity_count" db:"activity_count"`
	Rank          int       `json:"rank" db:"rank"`
}

type Leaderboard struct {
	Period            Period   `json:"period"`
	StartDate         string   `json:"start_date"`
	EndDate           string   `json:"end_date"`
	Entries           []*Entry `json:"entries"`
	TotalParticipants int      `json:"total_participants"`
}
