package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"salesQuestAPI/internal/types/achievement"
	"salesQuestAPI/internal/types/activity"
	"salesQuestAPI/internal/types/group"
	"salesQuestAPI/internal/types/quota"
	"salesQuestAPI/internal/types/streak"
	"salesQuestAPI/internal/types/user"
)

type cacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

type quotaKey struct {
	category quota.Category
	targetID string
	day      string
}

type memActivity struct {
	activity.Activity
	seq int64
}

// MemoryStore keeps all collections in memory. It backs unit tests and
// local development without a database.
type MemoryStore struct {
	mu           sync.RWMutex
	seq          int64
	users        map[uuid.UUID]*user.User
	userOrder    []uuid.UUID
	activities   map[uuid.UUID]*memActivity
	groups       map[string]*group.Group
	groupOrder   []string
	cache        map[string]cacheEntry
	quotaRecords map[quotaKey]*quota.Record
	streaks      map[uuid.UUID]*streak.Streak
	unlocks      map[uuid.UUID][]*achievement.Unlock
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[uuid.UUID]*user.User),
		activities:   make(map[uuid.UUID]*memActivity),
		groups:       make(map[string]*group.Group),
		cache:        make(map[string]cacheEntry),
		quotaRecords: make(map[quotaKey]*quota.Record),
		streaks:      make(map[uuid.UUID]*streak.Streak),
		unlocks:      make(map[uuid.UUID][]*achievement.Unlock),
	}
}

func dayKey(day time.Time) string {
	return day.Format("2006-01-02")
}

// ---------------------------------------------------------
// USERS
// ---------------------------------------------------------

func (s *MemoryStore) CreateUser(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// First writer wins, matching the conditional insert in Postgres.
	if _, ok := s.users[u.ID]; ok {
		return nil
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	clone := *u
	s.users[u.ID] = &clone
	s.userOrder = append(s.userOrder, u.ID)
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*user.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		if u, ok := s.users[id]; ok {
			clone := *u
			users = append(users, &clone)
		}
	}
	return users, nil
}

func (s *MemoryStore) UpdateUserTotals(ctx context.Context, id uuid.UUID, totalPoints, totalActivities int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.TotalPoints = totalPoints
	u.TotalActivities = totalActivities
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// ---------------------------------------------------------
// ACTIVITIES
// ---------------------------------------------------------

func (s *MemoryStore) CreateActivity(ctx context.Context, a *activity.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.seq++
	s.activities[a.ID] = &memActivity{Activity: *a, seq: s.seq}
	return nil
}

func (s *MemoryStore) ListActivities(ctx context.Context) ([]*activity.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*memActivity, 0, len(s.activities))
	for _, a := range s.activities {
		matched = append(matched, a)
	}
	return sortedByCreationDesc(matched), nil
}

func (s *MemoryStore) UserActivities(ctx context.Context, userID uuid.UUID, date *time.Time) ([]*activity.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*memActivity
	for _, a := range s.activities {
		if a.UserID != userID {
			continue
		}
		if date != nil && !sameDate(a.Date, *date) {
			continue
		}
		matched = append(matched, a)
	}
	return sortedByCreationDesc(matched), nil
}

func (s *MemoryStore) ActivitiesByDateRange(ctx context.Context, userID *uuid.UUID, start, end time.Time) ([]*activity.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*memActivity
	for _, a := range s.activities {
		if userID != nil && a.UserID != *userID {
			continue
		}
		if dateBefore(a.Date, start) || dateBefore(end, a.Date) {
			continue
		}
		matched = append(matched, a)
	}
	return sortedByCreationDesc(matched), nil
}

func sortedByCreationDesc(matched []*memActivity) []*activity.Activity {
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].seq > matched[j].seq
	})
	out := make([]*activity.Activity, 0, len(matched))
	for _, a := range matched {
		clone := a.Activity
		out = append(out, &clone)
	}
	return out
}

func sameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func dateBefore(a, b time.Time) bool {
	return a.Format("2006-01-02") < b.Format("2006-01-02")
}

func (s *MemoryStore) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.activities[id]; !ok {
		return ErrNotFound
	}
	delete(s.activities, id)
	return nil
}

func (s *MemoryStore) UserActivityTotals(ctx context.Context, userID uuid.UUID) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points, count := 0, 0
	for _, a := range s.activities {
		if a.UserID == userID {
			points += a.Points
			count++
		}
	}
	return points, count, nil
}

// ---------------------------------------------------------
// GROUPS
// ---------------------------------------------------------

func (s *MemoryStore) UpsertGroup(ctx context.Context, g *group.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.groups[g.Key]; ok {
		existing.Name = g.Name
		existing.RegisteredBy = g.RegisteredBy
		*g = *existing
		return nil
	}
	g.CreatedAt = time.Now().UTC()
	clone := *g
	s.groups[g.Key] = &clone
	s.groupOrder = append(s.groupOrder, g.Key)
	return nil
}

func (s *MemoryStore) SetGroupNotifications(ctx context.Context, key string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[key]
	if !ok {
		return ErrNotFound
	}
	g.NotificationsEnabled = enabled
	return nil
}

func (s *MemoryStore) ListGroups(ctx context.Context) ([]*group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]*group.Group, 0, len(s.groupOrder))
	for _, key := range s.groupOrder {
		if g, ok := s.groups[key]; ok {
			clone := *g
			groups = append(groups, &clone)
		}
	}
	return groups, nil
}

// ---------------------------------------------------------
// CACHE
// ---------------------------------------------------------

func (s *MemoryStore) CacheGet(ctx context.Context, key string) ([]byte, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[key]
	if !ok {
		return nil, time.Time{}, ErrNotFound
	}
	payload := make([]byte, len(entry.payload))
	copy(payload, entry.payload)
	return payload, entry.expiresAt, nil
}

func (s *MemoryStore) CacheSet(ctx context.Context, key string, payload []byte, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := make([]byte, len(payload))
	copy(clone, payload)
	s.cache[key] = cacheEntry{payload: clone, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) CacheDeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key, entry := range s.cache {
		if entry.expiresAt.Before(now) {
			delete(s.cache, key)
			removed++
		}
	}
	return removed, nil
}

// ---------------------------------------------------------
// QUOTA
// ---------------------------------------------------------

func (s *MemoryStore) QuotaUsed(ctx context.Context, category quota.Category, day time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.quotaUsedLocked(category, day), nil
}

func (s *MemoryStore) quotaUsedLocked(category quota.Category, day time.Time) int {
	used := 0
	dk := dayKey(day)
	for key, rec := range s.quotaRecords {
		if key.category == category && key.day == dk {
			used += rec.Count
		}
	}
	return used
}

func (s *MemoryStore) QuotaIncrement(ctx context.Context, category quota.Category, targetID string, day time.Time, n int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := quotaKey{category: category, targetID: targetID, day: dayKey(day)}
	rec, ok := s.quotaRecords[key]
	if !ok {
		rec = &quota.Record{Category: category, TargetID: targetID, Day: day}
		s.quotaRecords[key] = rec
	}
	rec.Count += n
	return s.quotaUsedLocked(category, day), nil
}

func (s *MemoryStore) QuotaDeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	ck := dayKey(cutoff)
	for key := range s.quotaRecords {
		if key.day < ck {
			delete(s.quotaRecords, key)
			removed++
		}
	}
	return removed, nil
}

// ---------------------------------------------------------
// STREAKS
// ---------------------------------------------------------

func (s *MemoryStore) GetStreak(ctx context.Context, userID uuid.UUID) (*streak.Streak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.streaks[userID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *st
	return &clone, nil
}

func (s *MemoryStore) UpsertStreak(ctx context.Context, st *streak.Streak) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st.UpdatedAt = time.Now().UTC()
	clone := *st
	s.streaks[st.UserID] = &clone
	return nil
}

// ---------------------------------------------------------
// ACHIEVEMENTS
// ---------------------------------------------------------

func (s *MemoryStore) UserAchievements(ctx context.Context, userID uuid.UUID) ([]*achievement.Unlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unlocks := make([]*achievement.Unlock, 0, len(s.unlocks[userID]))
	for _, u := range s.unlocks[userID] {
		clone := *u
		unlocks = append(unlocks, &clone)
	}
	return unlocks, nil
}

func (s *MemoryStore) InsertUnlock(ctx context.Context, u *achievement.Unlock) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.unlocks[u.UserID] {
		if existing.AchievementID == u.AchievementID {
			return false, nil
		}
	}
	clone := *u
	s.unlocks[u.UserID] = append(s.unlocks[u.UserID], &clone)
	return true, nil
}
