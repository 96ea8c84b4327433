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
	"salesQuestAPI/internal/types/activity"
	"salesQuestAPI/internal/types/leaderboard"
)

func TestCreateActivityValidation(t *testing.T) {
	svc := NewActivityService(store.NewMemoryStore())
	ctx := context.Background()
	userID := uuid.New()

	cases := []struct {
		name string
		req  activity.CreateActivityRequest
	}{
		{"unknown type", activity.CreateActivityRequest{UserID: userID, Type: "golf", Title: "x", Points: 10}},
		{"points below range", activity.CreateActivityRequest{UserID: userID, Type: activity.TypeCall, Title: "x", Points: -1}},
		{"points above range", activity.CreateActivityRequest{UserID: userID, Type: activity.TypeCall, Title: "x", Points: 1001}},
		{"missing title", activity.CreateActivityRequest{UserID: userID, Type: activity.TypeCall, Points: 10}},
		{"missing user", activity.CreateActivityRequest{Type: activity.TypeCall, Title: "x", Points: 10}},
		{"malformed date", activity.CreateActivityRequest{UserID: userID, Type: activity.TypeCall, Title: "x", Points: 10, Date: "30-08-2026"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateActivity(ctx, &tc.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateActivityBoundaryPoints(t *testing.T) {
	svc := NewActivityService(store.NewMemoryStore())
	ctx := context.Background()

	for _, points := range []int{activity.MinPoints, activity.MaxPoints} {
		a, err := svc.CreateActivity(ctx, &activity.CreateActivityRequest{
			UserID: uuid.New(),
			Type:   activity.TypeDeal,
			Title:  "Boundary",
			Points: points,
		})
		require.NoError(t, err)
		assert.Equal(t, points, a.Points)
	}
}

func TestCreateActivityAutoCreatesUser(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewActivityService(st)
	ctx := context.Background()
	userID := uuid.New()

	_, err := st.GetUser(ctx, userID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.CreateActivity(ctx, &activity.CreateActivityRequest{
		UserID: userID,
		Type:   activity.TypeMeeting,
		Title:  "Kickoff",
		Points: 25,
	})
	require.NoError(t, err)

	u, err := st.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "user-"+userID.String()[:8], u.Username)
}

func TestConcurrentFirstActivitiesProvisionUserOnce(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewActivityService(st)
	ctx := context.Background()
	userID := uuid.New()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateActivity(ctx, &activity.CreateActivityRequest{
				UserID: userID,
				Type:   activity.TypeCall,
				Title:  "Parallel call",
				Points: 5,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	activities, err := svc.GetUserActivities(ctx, userID, "")
	require.NoError(t, err)
	assert.Len(t, activities, 10)
}

func TestCreateActivityParsesDate(t *testing.T) {
	svc := NewActivityService(store.NewMemoryStore())

	a, err := svc.CreateActivity(context.Background(), &activity.CreateActivityRequest{
		UserID: uuid.New(),
		Type:   activity.TypeQuote,
		Title:  "Backdated quote",
		Points: 15,
		Date:   "2026-08-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-08-01", a.Date.Format("2006-01-02"))
}

func TestGetUserActivitiesFiltersByDate(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewActivityService(st)
	ctx := context.Background()
	userID := uuid.New()

	seedActivity(t, st, userID, 10, date(2026, 8, 29))
	seedActivity(t, st, userID, 20, date(2026, 8, 30))
	seedActivity(t, st, uuid.New(), 30, date(2026, 8, 30))

	all, err := svc.GetUserActivities(ctx, userID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.GetUserActivities(ctx, userID, "2026-08-30")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, 20, filtered[0].Points)

	_, err = svc.GetUserActivities(ctx, userID, "not-a-date")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteActivityNotFound(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewActivityService(st)
	aggregationSvc := NewAggregationService(st, time.Hour, 5*time.Minute)
	ctx := context.Background()

	current := date(2026, 8, 30)
	aggregationSvc.now = func() time.Time { return current }

	seedActivity(t, st, uuid.New(), 40, current)
	before, err := aggregationSvc.GetTeamStats(ctx)
	require.NoError(t, err)

	err = svc.DeleteActivity(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Recompute past the TTL: the miss must not have touched anything.
	current = current.Add(2 * time.Hour)
	after, err := aggregationSvc.GetTeamStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDeleteActivityRemovesRecord(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewActivityService(st)
	ctx := context.Background()
	userID := uuid.New()

	a := seedActivity(t, st, userID, 10, date(2026, 8, 30))

	require.NoError(t, svc.DeleteActivity(ctx, a.ID))

	remaining, err := svc.GetUserActivities(ctx, userID, "")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

// Full path: logging an activity moves team totals and puts the submitter
// on top of the daily leaderboard.
func TestCreateActivityReflectsInAggregates(t *testing.T) {
	st := store.NewMemoryStore()
	activitySvc := NewActivityService(st)
	aggregationSvc := NewAggregationService(st, time.Hour, 5*time.Minute)
	ctx := context.Background()

	today := date(2026, 8, 30)
	activitySvc.now = func() time.Time { return today }
	aggregationSvc.now = func() time.Time { return today }

	rival := uuid.New()
	seedActivity(t, st, rival, 30, today)

	hero := uuid.New()
	created, err := activitySvc.CreateActivity(ctx, &activity.CreateActivityRequest{
		UserID: hero,
		Type:   activity.TypeDeal,
		Title:  "Closed the big one",
		Points: 500,
	})
	require.NoError(t, err)
	activitySvc.refreshUserStats(hero)

	stats, err := aggregationSvc.GetTeamStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 530, stats.TotalPoints)
	assert.Equal(t, 2, stats.TotalActivities)
	assert.Equal(t, 530, stats.TodayPoints)

	lb, err := aggregationSvc.GetLeaderboard(ctx, leaderboard.PeriodDaily, today)
	require.NoError(t, err)
	require.NotEmpty(t, lb.Entries)
	assert.Equal(t, hero, lb.Entries[0].UserID)
	assert.Equal(t, 1, lb.Entries[0].Rank)
	assert.Equal(t, created.Points, lb.Entries[0].Points)
}
