package achievement

import (
	"time"

	"github.com/google/uuid"
)

// Unlock records that a user earned a badge. Insertion is unique per
// (user, achievement).
type Unlock struct {
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	AchievementID string    `json:"achievement_id" db:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at" db:"unlocked_at"`
}

type UnlockResult struct {
	NewUnlock bool `json:"new_unlock"`
}
