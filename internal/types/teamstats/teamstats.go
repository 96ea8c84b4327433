package teamstats

import "github.com/google/uuid"

type Performer struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	ImageURL *string   `json:"image_url"`
	Points   int       `json:"points"`
}

type TeamStats struct {
	TotalUsers      int          `json:"total_users"`
	TotalPoints     int          `json:"total_points"`
	TotalActivities int          `json:"total_activities"`
	TodayPoints     int          `json:"today_points"`
	TodayActivities int          `json:"today_activities"`
	TopPerformers   []*Performer `json:"top_performers"`
}
