package notification

import (
	"salesQuestAPI/internal/types/activity"
	"salesQuestAPI/internal/types/teamstats"
)

// Payload is the rich message pushed to a chat group when a new
// activity is recorded or an achievement unlocks. Exactly one of
// Activity and AchievementID is set.
type Payload struct {
	Title         string             `json:"title"`
	Body          string             `json:"body"`
	Activity      *activity.Activity `json:"activity,omitempty"`
	AchievementID string             `json:"achievement_id,omitempty"`

	// Submitter context at send time.
	SubmitterName       string `json:"submitter_name"`
	SubmitterPoints     int    `json:"submitter_points"`
	SubmitterActivities int    `json:"submitter_activities"`
	SubmitterDailyRank  int    `json:"submitter_daily_rank,omitempty"`

	Team *teamstats.TeamStats `json:"team,omitempty"`
}
