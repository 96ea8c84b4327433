package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesQuestAPI/internal/store"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdvanceStreakConsecutiveDay(t *testing.T) {
	yesterday := date(2026, 8, 29)
	current, longest := AdvanceStreak(&yesterday, date(2026, 8, 30), 3, 5)

	assert.Equal(t, 4, current)
	assert.Equal(t, 5, longest)
}

func TestAdvanceStreakSetsNewLongest(t *testing.T) {
	yesterday := date(2026, 8, 29)
	current, longest := AdvanceStreak(&yesterday, date(2026, 8, 30), 5, 5)

	assert.Equal(t, 6, current)
	assert.Equal(t, 6, longest)
}

func TestAdvanceStreakSameDayUnchanged(t *testing.T) {
	today := date(2026, 8, 30)
	current, longest := AdvanceStreak(&today, today, 3, 5)

	assert.Equal(t, 3, current)
	assert.Equal(t, 5, longest)
}

func TestAdvanceStreakGapResets(t *testing.T) {
	threeDaysAgo := date(2026, 8, 27)
	current, longest := AdvanceStreak(&threeDaysAgo, date(2026, 8, 30), 7, 9)

	assert.Equal(t, 1, current)
	assert.Equal(t, 9, longest)
}

func TestAdvanceStreakFirstActivity(t *testing.T) {
	current, longest := AdvanceStreak(nil, date(2026, 8, 30), 0, 0)

	assert.Equal(t, 1, current)
	assert.Equal(t, 1, longest)
}

func TestGetUserStreakZeroState(t *testing.T) {
	svc := NewEngagementService(store.NewMemoryStore())

	st, err := svc.GetUserStreak(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 0, st.CurrentStreak)
	assert.Equal(t, 0, st.LongestStreak)
	assert.Nil(t, st.LastActivityDate)
}

func TestUpdateAndGetUserStreak(t *testing.T) {
	svc := NewEngagementService(store.NewMemoryStore())
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.UpdateUserStreak(ctx, userID, 4, 6, date(2026, 8, 30))
	require.NoError(t, err)

	st, err := svc.GetUserStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4, st.CurrentStreak)
	assert.Equal(t, 6, st.LongestStreak)
	require.NotNil(t, st.LastActivityDate)
	assert.Equal(t, "2026-08-30", st.LastActivityDate.Format("2006-01-02"))
}

func TestUpdateUserStreakRejectsNegative(t *testing.T) {
	svc := NewEngagementService(store.NewMemoryStore())

	_, err := svc.UpdateUserStreak(context.Background(), uuid.New(), -1, 0, date(2026, 8, 30))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUnlockAchievementIdempotent(t *testing.T) {
	svc := NewEngagementService(store.NewMemoryStore())
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.UnlockAchievement(ctx, userID, "first_deal")
	require.NoError(t, err)
	assert.True(t, first.NewUnlock)

	second, err := svc.UnlockAchievement(ctx, userID, "first_deal")
	require.NoError(t, err)
	assert.False(t, second.NewUnlock)

	unlocks, err := svc.GetUserAchievements(ctx, userID)
	require.NoError(t, err)
	require.Len(t, unlocks, 1)
	assert.Equal(t, "first_deal", unlocks[0].AchievementID)
}

type recordingUnlockNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingUnlockNotifier) NotifyAchievementUnlocked(userID uuid.UUID, achievementID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, achievementID)
}

func TestUnlockAchievementNotifiesFirstUnlockOnly(t *testing.T) {
	svc := NewEngagementService(store.NewMemoryStore())
	notifier := &recordingUnlockNotifier{}
	svc.SetNotifier(notifier)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.UnlockAchievement(ctx, userID, "first_deal")
	require.NoError(t, err)
	_, err = svc.UnlockAchievement(ctx, userID, "first_deal")
	require.NoError(t, err)

	assert.Equal(t, []string{"first_deal"}, notifier.events)
}

func TestUnlockAchievementConcurrent(t *testing.T) {
	svc := NewEngagementService(store.NewMemoryStore())
	ctx := context.Background()
	userID := uuid.New()

	var wg sync.WaitGroup
	var mu sync.Mutex
	newUnlocks := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.UnlockAchievement(ctx, userID, "streak_10")
			if err != nil {
				return
			}
			if result.NewUnlock {
				mu.Lock()
				newUnlocks++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, newUnlocks)

	unlocks, err := svc.GetUserAchievements(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, unlocks, 1)
}
