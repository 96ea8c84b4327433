package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	Username        string            `json:"username" db:"username"`
	ImageURL        *string           `json:"image_url" db:"image_url"`
	Settings        map[string]string `json:"settings" db:"settings"`
	TotalPoints     int               `json:"total_points" db:"total_points"`
	TotalActivities int               `json:"total_activities" db:"total_activities"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}
