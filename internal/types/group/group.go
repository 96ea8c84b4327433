package group

import (
	"time"

	"github.com/google/uuid"
)

// Group is a registered chat group that receives activity notifications.
type Group struct {
	Key                  string    `json:"key" db:"key"`
	Name                 string    `json:"name" db:"name"`
	RegisteredBy         uuid.UUID `json:"registered_by" db:"registered_by"`
	NotificationsEnabled bool      `json:"notifications_enabled" db:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

type RegisterGroupRequest struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	RegisteredBy uuid.UUID `json:"registered_by"`
}

type ToggleNotificationsRequest struct {
	Enabled bool `json:"enabled"`
}
