package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"salesQuestAPI/internal/types/achievement"
	"salesQuestAPI/internal/types/activity"
	"salesQuestAPI/internal/types/group"
	"salesQuestAPI/internal/types/quota"
	"salesQuestAPI/internal/types/streak"
	"salesQuestAPI/internal/types/user"
)

// ErrNotFound is returned when a document is missing from its collection.
var ErrNotFound = errors.New("store: not found")

// Store is the document-store adapter the engine runs on. It covers the
// users, activities, groups, cache, quota, streaks and achievements
// collections. Implementations must be safe for concurrent use.
type Store interface {
	// Users. CreateUser is a conditional insert: a duplicate ID is a
	// no-op, so concurrent first-activity provisioning never fails.
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	ListUsers(ctx context.Context) ([]*user.User, error)
	UpdateUserTotals(ctx context.Context, id uuid.UUID, totalPoints, totalActivities int) error

	// Activities
	CreateActivity(ctx context.Context, a *activity.Activity) error
	ListActivities(ctx context.Context) ([]*activity.Activity, error)
	UserActivities(ctx context.Context, userID uuid.UUID, date *time.Time) ([]*activity.Activity, error)
	ActivitiesByDateRange(ctx context.Context, userID *uuid.UUID, start, end time.Time) ([]*activity.Activity, error)
	DeleteActivity(ctx context.Context, id uuid.UUID) error
	UserActivityTotals(ctx context.Context, userID uuid.UUID) (points, count int, err error)

	// Groups
	UpsertGroup(ctx context.Context, g *group.Group) error
	SetGroupNotifications(ctx context.Context, key string, enabled bool) error
	ListGroups(ctx context.Context) ([]*group.Group, error)

	// Cache
	CacheGet(ctx context.Context, key string) (payload []byte, expiresAt time.Time, err error)
	CacheSet(ctx context.Context, key string, payload []byte, expiresAt time.Time) error
	CacheDeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// Quota. QuotaIncrement adds n to the (category, target, day) record
	// and returns the new total for (category, day) so callers get an
	// authoritative remaining count.
	QuotaUsed(ctx context.Context, category quota.Category, day time.Time) (int, error)
	QuotaIncrement(ctx context.Context, category quota.Category, targetID string, day time.Time, n int) (int, error)
	QuotaDeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Streaks
	GetStreak(ctx context.Context, userID uuid.UUID) (*streak.Streak, error)
	UpsertStreak(ctx context.Context, s *streak.Streak) error

	// Achievements. InsertUnlock reports false without writing when the
	// (user, achievement) pair already exists.
	UserAchievements(ctx context.Context, userID uuid.UUID) ([]*achievement.Unlock, error)
	InsertUnlock(ctx context.Context, u *achievement.Unlock) (bool, error)
}
