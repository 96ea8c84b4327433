package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"salesQuestAPI/internal/store"
	"salesQuestAPI/internal/types/leaderboard"
	"salesQuestAPI/internal/types/teamstats"
)

const (
	teamStatsCacheKey = "team_stats"
	topPerformerCount = 5
)

// AggregationService computes team statistics and period leaderboards
// from raw activities, behind a time-boxed cache in the store. Both read
// paths recompute synchronously on a miss; concurrent misses for the
// same key are collapsed with singleflight.
type AggregationService struct {
	store          store.Store
	teamStatsTTL   time.Duration
	leaderboardTTL time.Duration
	now            func() time.Time
	flight         singleflight.Group
}

func NewAggregationService(st store.Store, teamStatsTTL, leaderboardTTL time.Duration) *AggregationService {
	return &AggregationService{
		store:          st,
		teamStatsTTL:   teamStatsTTL,
		leaderboardTTL: leaderboardTTL,
		now:            time.Now,
	}
}

func (s *AggregationService) GetTeamStats(ctx context.Context) (*teamstats.TeamStats, error) {
	payload, err := s.cached(ctx, teamStatsCacheKey, s.teamStatsTTL, func() (interface{}, error) {
		return s.computeTeamStats(ctx)
	})
	if err != nil {
		return nil, err
	}

	stats := &teamstats.TeamStats{}
	if err := json.Unmarshal(payload, stats); err != nil {
		return nil, fmt.Errorf("failed to decode cached team stats: %w", err)
	}
	return stats, nil
}

// GetLeaderboard ranks users by summed points over the period window
// containing date. Ties are broken deterministically by user ID
// ascending.
func (s *AggregationService) GetLeaderboard(ctx context.Context, period leaderboard.Period, date time.Time) (*leaderboard.Leaderboard, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: unknown leaderboard period %q", ErrValidation, period)
	}
	if date.IsZero() {
		date = s.now().UTC()
	}

	start, end := PeriodWindow(period, date)
	key := fmt.Sprintf("leaderboard_%s_%s", period, start.Format(dateLayout))

	payload, err := s.cached(ctx, key, s.leaderboardTTL, func() (interface{}, error) {
		return s.computeLeaderboard(ctx, period, start, end)
	})
	if err != nil {
		return nil, err
	}

	lb := &leaderboard.Leaderboard{}
	if err := json.Unmarshal(payload, lb); err != nil {
		return nil, fmt.Errorf("failed to decode cached leaderboard: %w", err)
	}
	return lb, nil
}

// cached returns the stored payload for key if it has not expired,
// otherwise recomputes, re-caches and returns the fresh payload. Expiry
// is checked against the injected clock before every cached read; an
// entry is never served past its expiry.
func (s *AggregationService) cached(ctx context.Context, key string, ttl time.Duration, compute func() (interface{}, error)) ([]byte, error) {
	payload, expiresAt, err := s.store.CacheGet(ctx, key)
	if err == nil && s.now().Before(expiresAt) {
		return payload, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	fresh, err, _ := s.flight.Do(key, func() (interface{}, error) {
		value, err := compute()
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cache payload: %w", err)
		}
		if err := s.store.CacheSet(ctx, key, encoded, s.now().Add(ttl)); err != nil {
			return nil, fmt.Errorf("failed to write cache: %w", err)
		}
		return encoded, nil
	})
	if err != nil {
		return nil, err
	}
	return fresh.([]byte), nil
}

func (s *AggregationService) computeTeamStats(ctx context.Context) (*teamstats.TeamStats, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	activities, err := s.store.ListActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan activities: %w", err)
	}

	today := s.now().UTC().Format(dateLayout)
	stats := &teamstats.TeamStats{TotalUsers: len(users)}
	for _, a := range activities {
		stats.TotalPoints += a.Points
		stats.TotalActivities++
		if a.Date.Format(dateLayout) == today {
			stats.TodayPoints += a.Points
			stats.TodayActivities++
		}
	}

	ranked := make([]*teamstats.Performer, 0, len(users))
	for _, u := range users {
		ranked = append(ranked, &teamstats.Performer{
			UserID:   u.ID,
			Username: u.Username,
			ImageURL: u.ImageURL,
			Points:   u.TotalPoints,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Points != ranked[j].Points {
			return ranked[i].Points > ranked[j].Points
		}
		return ranked[i].UserID.String() < ranked[j].UserID.String()
	})
	if len(ranked) > topPerformerCount {
		ranked = ranked[:topPerformerCount]
	}
	stats.TopPerformers = ranked

	return stats, nil
}

func (s *AggregationService) computeLeaderboard(ctx context.Context, period leaderboard.Period, start, end time.Time) (*leaderboard.Leaderboard, error) {
	activities, err := s.store.ActivitiesByDateRange(ctx, nil, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities for leaderboard: %w", err)
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users for leaderboard: %w", err)
	}

	type bucket struct {
		points int
		count  int
	}
	byUser := make(map[string]*bucket)
	for _, a := range activities {
		id := a.UserID.String()
		b, ok := byUser[id]
		if !ok {
			b = &bucket{}
			byUser[id] = b
		}
		b.points += a.Points
		b.count++
	}

	profiles := make(map[string]struct {
		username string
		imageURL *string
	}, len(users))
	for _, u := range users {
		profiles[u.ID.String()] = struct {
			username string
			imageURL *string
		}{u.Username, u.ImageURL}
	}

	entries := make([]*leaderboard.Entry, 0, len(byUser))
	for _, a := range activities {
		id := a.UserID.String()
		b, ok := byUser[id]
		if !ok {
			continue
		}
		delete(byUser, id)

		entry := &leaderboard.Entry{
			UserID:        a.UserID,
			Points:        b.points,
			ActivityCount: b.count,
		}
		if p, ok := profiles[id]; ok {
			entry.Username = p.username
			entry.ImageURL = p.imageURL
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserID.String() < entries[j].UserID.String()
	})
	for i, entry := range entries {
		entry.Rank = i + 1
	}

	return &leaderboard.Leaderboard{
		Period:            period,
		StartDate:         start.Format(dateLayout),
		EndDate:           end.Format(dateLayout),
		Entries:           entries,
		TotalParticipants: len(entries),
	}, nil
}

// PeriodWindow resolves the [start, end] calendar window containing
// date: daily is the single date, weekly runs Monday to Sunday, monthly
// runs the first to the last day of the month.
func PeriodWindow(period leaderboard.Period, date time.Time) (time.Time, time.Time) {
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case leaderboard.PeriodWeekly:
		offset := (int(date.Weekday()) + 6) % 7 // Monday = 0
		start := date.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6)
	case leaderboard.PeriodMonthly:
		start := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1)
	default:
		return date, date
	}
}
