package activity

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	TypeCall    ActivityType = "call"
	TypeMeeting ActivityType = "meeting"
	TypeQuote   ActivityType = "quote"
	TypeDemo    ActivityType = "demo"
	TypeEmail   ActivityType = "email"
	TypeDeal    ActivityType = "deal"
)

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case TypeCall, TypeMeeting, TypeQuote, TypeDemo, TypeEmail, TypeDeal:
		return true
	}
	return false
}

const (
	MinPoints = 0
	MaxPoints = 1000
)

type Activity struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	UserID    uuid.UUID    `json:"user_id" db:"user_id"`
	Type      ActivityType `json:"type" db:"type"`
	Title     string       `json:"title" db:"title"`
	Subtitle  *string      `json:"subtitle,omitempty" db:"subtitle"`
	Points    int          `json:"points" db:"points"`
	// Date is the calendar day the activity counts toward, distinct
	// from CreatedAt.
	Date      time.Time `json:"date" db:"date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateActivityRequest struct {
	UserID   uuid.UUID    `json:"user_id"`
	Type     ActivityType `json:"type"`
	Title    string       `json:"title"`
	Subtitle *string      `json:"subtitle,omitempty"`
	Points   int          `json:"points"`
	Date     string       `json:"date"` // YYYY-MM-DD, defaults to today
}
