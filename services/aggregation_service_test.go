package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesQuestAPI/internal/store"
	"salesQuestAPI/internal/types/activity"
	"salesQuestAPI/internal/types/leaderboard"
)

func seedActivity(t *testing.T, st store.Store, userID uuid.UUID, points int, day time.Time) *activity.Activity {
	t.Helper()
	a := &activity.Activity{
		ID:     uuid.New(),
		UserID: userID,
		Type:   activity.TypeCall,
		Title:  "Test call",
		Points: points,
		Date:   day,
	}
	require.NoError(t, st.CreateActivity(context.Background(), a))
	return a
}

func TestTeamStatsCachedWithinTTL(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewAggregationService(st, time.Hour, 5*time.Minute)
	ctx := context.Background()

	current := date(2026, 8, 30)
	svc.now = func() time.Time { return current }

	userID := uuid.New()
	seedActivity(t, st, userID, 50, current)

	first, err := svc.GetTeamStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, first.TotalPoints)
	assert.Equal(t, 1, first.TotalActivities)
	assert.Equal(t, 50, first.TodayPoints)

	// New activity must not show up while the cache entry is live.
	seedActivity(t, st, userID, 30, current)

	cached, err := svc.GetTeamStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, cached.TotalPoints)
	assert.Equal(t, 1, cached.TotalActivities)
}

func TestTeamStatsRecomputedAfterExpiry(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewAggregationService(st, time.Hour, 5*time.Minute)
	ctx := context.Background()

	current := date(2026, 8, 30)
	svc.now = func() time.Time { return current }

	userID := uuid.New()
	seedActivity(t, st, userID, 50, current)

	_, err := svc.GetTeamStats(ctx)
	require.NoError(t, err)

	seedActivity(t, st, userID, 30, current)
	current = current.Add(2 * time.Hour)

	fresh, err := svc.GetTeamStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 80, fresh.TotalPoints)
	assert.Equal(t, 2, fresh.TotalActivities)
}

func TestTeamStatsTodaySplit(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewAggregationService(st, time.Hour, 5*time.Minute)
	ctx := context.Background()

	current := date(2026, 8, 30)
	svc.now = func() time.Time { return current }

	userID := uuid.New()
	seedActivity(t, st, userID, 40, current)
	seedActivity(t, st, userID, 25, current.AddDate(0, 0, -1))

	stats, err := svc.GetTeamStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 65, stats.TotalPoints)
	assert.Equal(t, 2, stats.TotalActivities)
	assert.Equal(t, 40, stats.TodayPoints)
	assert.Equal(t, 1, stats.TodayActivities)
}

func TestLeaderboardRankingAndTieBreak(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewAggregationService(st, time.Hour, 5*time.Minute)
	ctx := context.Background()

	today := date(2026, 8, 30)
	svc.now = func() time.Time { return today }

	top := uuid.New()
	tieA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	tieB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	seedActivity(t, st, top, 60, today)
	seedActivity(t, st, top, 40, today)
	seedActivity(t, st, tieB, 50, today)
	seedActivity(t, st, tieA, 50, today)

	lb, err := svc.GetLeaderboard(ctx, leaderboard.PeriodDaily, today)
	require.NoError(t, err)

	require.Len(t, lb.Entries, 3)
	assert.Equal(t, 3, lb.TotalParticipants)

	assert.Equal(t, top, lb.Entries[0].UserID)
	assert.Equal(t, 100, lb.Entries[0].Points)
	assert.Equal(t, 2, lb.Entries[0].ActivityCount)
	assert.Equal(t, 1, lb.Entries[0].Rank)

	// Equal points rank by user ID ascending.
	assert.Equal(t, tieA, lb.Entries[1].UserID)
	assert.Equal(t, 2, lb.Entries[1].Rank)
	assert.Equal(t, tieB, lb.Entries[2].UserID)
	assert.Equal(t, 3, lb.Entries[2].Rank)
}

func TestLeaderboardExcludesOutOfWindowActivities(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewAggregationService(st, time.Hour, 5*time.Minute)
	ctx := context.Background()

	today := date(2026, 8, 30)
	svc.now = func() time.Time { return today }

	userID := uuid.New()
	seedActivity(t, st, userID, 50, today)
	seedActivity(t, st, userID, 99, today.AddDate(0, 0, -3))

	lb, err := svc.GetLeaderboard(ctx, leaderboard.PeriodDaily, today)
	require.NoError(t, err)

	require.Len(t, lb.Entries, 1)
	assert.Equal(t, 50, lb.Entries[0].Points)
	assert.Equal(t, 1, lb.Entries[0].ActivityCount)
}

func TestLeaderboardRejectsUnknownPeriod(t *testing.T) {
	svc := NewAggregationService(store.NewMemoryStore(), time.Hour, 5*time.Minute)

	_, err := svc.GetLeaderboard(context.Background(), leaderboard.Period("yearly"), date(2026, 8, 30))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPeriodWindowDaily(t *testing.T) {
	start, end := PeriodWindow(leaderboard.PeriodDaily, date(2026, 8, 30))
	assert.Equal(t, date(2026, 8, 30), start)
	assert.Equal(t, date(2026, 8, 30), end)
}

func TestPeriodWindowWeeklyMondayToSunday(t *testing.T) {
	// 2026-08-30 is a Sunday; the week started Monday the 24th.
	start, end := PeriodWindow(leaderboard.PeriodWeekly, date(2026, 8, 30))
	assert.Equal(t, date(2026, 8, 24), start)
	assert.Equal(t, date(2026, 8, 30), end)

	// A Monday starts its own week.
	start, end = PeriodWindow(leaderboard.PeriodWeekly, date(2026, 8, 24))
	assert.Equal(t, date(2026, 8, 24), start)
	assert.Equal(t, date(2026, 8, 30), end)
}

func TestPeriodWindowMonthly(t *testing.T) {
	start, end := PeriodWindow(leaderboard.PeriodMonthly, date(2026, 2, 15))
	assert.Equal(t, date(2026, 2, 1), start)
	assert.Equal(t, date(2026, 2, 28), end)
}
