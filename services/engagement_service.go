package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"salesQuestAPI/internal/store"
	"salesQuestAPI/internal/types/achievement"
	"salesQuestAPI/internal/types/streak"
)

// AchievementNotifier receives first-time unlocks for fan-out.
// Failures inside the notifier never affect the unlock itself.
type AchievementNotifier interface {
	NotifyAchievementUnlocked(userID uuid.UUID, achievementID string)
}

// EngagementService handles per-user streaks and achievement unlocks.
type EngagementService struct {
	store    store.Store
	notifier AchievementNotifier
	now      func() time.Time
}

func NewEngagementService(st store.Store) *EngagementService {
	return &EngagementService{
		store: st,
		now:   time.Now,
	}
}

// SetNotifier injects the fan-out dispatcher from main.go.
func (s *EngagementService) SetNotifier(n AchievementNotifier) {
	s.notifier = n
}

// GetUserStreak returns the stored streak, or the zero-state when the
// user has none yet.
func (s *EngagementService) GetUserStreak(ctx context.Context, userID uuid.UUID) (*streak.Streak, error) {
	st, err := s.store.GetStreak(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &streak.Streak{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return st, nil
}

// UpdateUserStreak stores caller-supplied streak values; the arithmetic
// lives in AdvanceStreak so callers compute before they write.
func (s *EngagementService) UpdateUserStreak(ctx context.Context, userID uuid.UUID, current, longest int, lastActivityDate time.Time) (*streak.Streak, error) {
	if current < 0 || longest < 0 {
		return nil, fmt.Errorf("%w: streak lengths must be non-negative", ErrValidation)
	}
	st := &streak.Streak{
		UserID:           userID,
		CurrentStreak:    current,
		LongestStreak:    longest,
		LastActivityDate: &lastActivityDate,
	}
	if err := s.store.UpsertStreak(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}
	return st, nil
}

// AdvanceStreak applies one activity on today to a streak: a one-day gap
// since lastDate extends the run, a zero-day gap leaves it unchanged,
// anything else resets it to 1. Longest always tracks the max.
func AdvanceStreak(lastDate *time.Time, today time.Time, current, longest int) (int, int) {
	switch gap := daysBetween(lastDate, today); gap {
	case 0:
		// same-day activity, streak unchanged
	case 1:
		current++
	default:
		current = 1
	}
	if current > longest {
		longest = current
	}
	return current, longest
}

func daysBetween(last *time.Time, today time.Time) int {
	if last == nil {
		return -1
	}
	a := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func (s *EngagementService) GetUserAchievements(ctx context.Context, userID uuid.UUID) ([]*achievement.Unlock, error) {
	unlocks, err := s.store.UserAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch achievements: %w", err)
	}
	return unlocks, nil
}

// UnlockAchievement records the badge once per (user, achievement). The
// conditional insert in the store keeps this idempotent under
// concurrent calls for the same pair.
func (s *EngagementService) UnlockAchievement(ctx context.Context, userID uuid.UUID, achievementID string) (*achievement.UnlockResult, error) {
	if achievementID == "" {
		return nil, fmt.Errorf("%w: achievement id is required", ErrValidation)
	}
	inserted, err := s.store.InsertUnlock(ctx, &achievement.Unlock{
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unlock achievement: %w", err)
	}
	// Only the first unlock of a pair is announced.
	if inserted && s.notifier != nil {
		s.notifier.NotifyAchievementUnlocked(userID, achievementID)
	}
	return &achievement.UnlockResult{NewUnlock: inserted}, nil
}
