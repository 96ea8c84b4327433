package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesQuestAPI/internal/types/achievement"
	"salesQuestAPI/internal/types/quota"
	"salesQuestAPI/internal/types/user"
)

func TestCreateUserDuplicateIsNoop(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, st.CreateUser(ctx, &user.User{ID: id, Username: "original"}))
	require.NoError(t, st.CreateUser(ctx, &user.User{ID: id, Username: "duplicate"}))

	u, err := st.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "original", u.Username)

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCacheDeleteExpiredKeepsLiveEntries(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.CacheSet(ctx, "stale", []byte("a"), now.Add(-time.Minute)))
	require.NoError(t, st.CacheSet(ctx, "live", []byte("b"), now.Add(time.Hour)))

	removed, err := st.CacheDeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, _, err = st.CacheGet(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotFound)

	payload, _, err := st.CacheGet(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), payload)
}

func TestQuotaIncrementSumsAcrossTargets(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	total, err := st.QuotaIncrement(ctx, quota.CategoryActivity, "g1", day, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	total, err = st.QuotaIncrement(ctx, quota.CategoryActivity, "g2", day, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	// Other categories and days keep separate counters.
	used, err := st.QuotaUsed(ctx, quota.CategoryDigest, day)
	require.NoError(t, err)
	assert.Equal(t, 0, used)

	used, err = st.QuotaUsed(ctx, quota.CategoryActivity, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, used)
}

func TestInsertUnlockOnlyFirstWins(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	inserted, err := st.InsertUnlock(ctx, &achievement.Unlock{UserID: userID, AchievementID: "first_deal"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = st.InsertUnlock(ctx, &achievement.Unlock{UserID: userID, AchievementID: "first_deal"})
	require.NoError(t, err)
	assert.False(t, inserted)
}
