package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesQuestAPI/internal/types/achievement"
	"salesQuestAPI/internal/types/activity"
	"salesQuestAPI/internal/types/group"
	"salesQuestAPI/internal/types/quota"
	"salesQuestAPI/internal/types/streak"
	"salesQuestAPI/internal/types/user"
)

// PostgresStore backs the document collections with Postgres tables.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// ---------------------------------------------------------
// USERS
// ---------------------------------------------------------

// CreateUser is a conditional insert so concurrent first-activity
// provisioning for the same ID never fails on the primary key; the
// losing writer sees zero rows from RETURNING and treats it as done.
func (s *PostgresStore) CreateUser(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, username, image_url, settings, total_points, total_activities, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query, u.ID, u.Username, u.ImageURL, u.Settings, u.TotalPoints, u.TotalActivities).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `
		SELECT id, username, image_url, settings, total_points, total_activities, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	u := &user.User{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Username, &u.ImageURL, &u.Settings, &u.TotalPoints, &u.TotalActivities, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]*user.User, error) {
	query := `
		SELECT id, username, image_url, settings, total_points, total_activities, created_at, updated_at
		FROM users
		ORDER BY created_at ASC
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u := &user.User{}
		err := rows.Scan(&u.ID, &u.Username, &u.ImageURL, &u.Settings, &u.TotalPoints, &u.TotalActivities, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *PostgresStore) UpdateUserTotals(ctx context.Context, id uuid.UUID, totalPoints, totalActivities int) error {
	query := `
		UPDATE users
		SET total_points = $2, total_activities = $3, updated_at = NOW()
		WHERE id = $1
	`
	result, err := s.db.Exec(ctx, query, id, totalPoints, totalActivities)
	if err != nil {
		return fmt.Errorf("failed to update user totals: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------
// ACTIVITIES
// ---------------------------------------------------------

func (s *PostgresStore) CreateActivity(ctx context.Context, a *activity.Activity) error {
	query := `
		INSERT INTO activities (id, user_id, type, title, subtitle, points, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`
	err := s.db.QueryRow(ctx, query, a.ID, a.UserID, a.Type, a.Title, a.Subtitle, a.Points, a.Date).
		Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActivities(ctx context.Context) ([]*activity.Activity, error) {
	query := `
		SELECT id, user_id, type, title, subtitle, points, date, created_at
		FROM activities
		ORDER BY created_at DESC
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

func (s *PostgresStore) UserActivities(ctx context.Context, userID uuid.UUID, date *time.Time) ([]*activity.Activity, error) {
	query := `
		SELECT id, user_id, type, title, subtitle, points, date, created_at
		FROM activities
		WHERE user_id = $1
	`
	args := []interface{}{userID}
	if date != nil {
		query += " AND date = $2"
		args = append(args, *date)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

func (s *PostgresStore) ActivitiesByDateRange(ctx context.Context, userID *uuid.UUID, start, end time.Time) ([]*activity.Activity, error) {
	query := `
		SELECT id, user_id, type, title, subtitle, points, date, created_at
		FROM activities
		WHERE date >= $1 AND date <= $2
	`
	args := []interface{}{start, end}
	if userID != nil {
		query += " AND user_id = $3"
		args = append(args, *userID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities by range: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

func scanActivities(rows pgx.Rows) ([]*activity.Activity, error) {
	var activities []*activity.Activity
	for rows.Next() {
		a := &activity.Activity{}
		err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Title, &a.Subtitle, &a.Points, &a.Date, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, nil
}

func (s *PostgresStore) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, "DELETE FROM activities WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UserActivityTotals(ctx context.Context, userID uuid.UUID) (int, int, error) {
	query := `
		SELECT COALESCE(SUM(points), 0), COUNT(*)
		FROM activities
		WHERE user_id = $1
	`
	var points, count int
	err := s.db.QueryRow(ctx, query, userID).Scan(&points, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum user activities: %w", err)
	}
	return points, count, nil
}

// ---------------------------------------------------------
// GROUPS
// ---------------------------------------------------------

func (s *PostgresStore) UpsertGroup(ctx context.Context, g *group.Group) error {
	query := `
		INSERT INTO groups (key, name, registered_by, notifications_enabled, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (key)
		DO UPDATE SET name = $2, registered_by = $3
		RETURNING notifications_enabled, created_at
	`
	err := s.db.QueryRow(ctx, query, g.Key, g.Name, g.RegisteredBy, g.NotificationsEnabled).
		Scan(&g.NotificationsEnabled, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert group: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetGroupNotifications(ctx context.Context, key string, enabled bool) error {
	result, err := s.db.Exec(ctx, "UPDATE groups SET notifications_enabled = $2 WHERE key = $1", key, enabled)
	if err != nil {
		return fmt.Errorf("failed to toggle group notifications: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListGroups(ctx context.Context) ([]*group.Group, error) {
	query := `
		SELECT key, name, registered_by, notifications_enabled, created_at
		FROM groups
		ORDER BY created_at ASC
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*group.Group
	for rows.Next() {
		g := &group.Group{}
		err := rows.Scan(&g.Key, &g.Name, &g.RegisteredBy, &g.NotificationsEnabled, &g.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// ---------------------------------------------------------
// CACHE
// ---------------------------------------------------------

func (s *PostgresStore) CacheGet(ctx context.Context, key string) ([]byte, time.Time, error) {
	var payload []byte
	var expiresAt time.Time
	err := s.db.QueryRow(ctx, "SELECT payload, expires_at FROM cache WHERE key = $1", key).
		Scan(&payload, &expiresAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, time.Time{}, ErrNotFound
		}
		return nil, time.Time{}, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return payload, expiresAt, nil
}

func (s *PostgresStore) CacheSet(ctx context.Context, key string, payload []byte, expiresAt time.Time) error {
	query := `
		INSERT INTO cache (key, payload, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET payload = $2, expires_at = $3
	`
	_, err := s.db.Exec(ctx, query, key, payload, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) CacheDeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.Exec(ctx, "DELETE FROM cache WHERE expires_at < $1", now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep cache: %w", err)
	}
	return result.RowsAffected(), nil
}

// ---------------------------------------------------------
// QUOTA
// ---------------------------------------------------------

func (s *PostgresStore) QuotaUsed(ctx context.Context, category quota.Category, day time.Time) (int, error) {
	query := `
		SELECT COALESCE(SUM(count), 0)
		FROM quota_records
		WHERE category = $1 AND day = $2
	`
	var used int
	err := s.db.QueryRow(ctx, query, category, day).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("failed to read quota usage: %w", err)
	}
	return used, nil
}

// QuotaIncrement bumps the (category, target, day) counter and returns
// the day's total in one statement. The CTE's written row is not
// visible to the outer read, so its fresh count is added explicitly.
func (s *PostgresStore) QuotaIncrement(ctx context.Context, category quota.Category, targetID string, day time.Time, n int) (int, error) {
	query := `
		WITH bumped AS (
			INSERT INTO quota_records (category, target_id, day, count)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (category, target_id, day)
			DO UPDATE SET count = quota_records.count + $4
			RETURNING count
		)
		SELECT (SELECT count FROM bumped)
			+ COALESCE((
				SELECT SUM(count)
				FROM quota_records
				WHERE category = $1 AND day = $3 AND target_id <> $2
			), 0)
	`
	var used int
	if err := s.db.QueryRow(ctx, query, category, targetID, day, n).Scan(&used); err != nil {
		return 0, fmt.Errorf("failed to increment quota: %w", err)
	}
	return used, nil
}

func (s *PostgresStore) QuotaDeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(ctx, "DELETE FROM quota_records WHERE day < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep quota records: %w", err)
	}
	return result.RowsAffected(), nil
}

// ---------------------------------------------------------
// STREAKS
// ---------------------------------------------------------

func (s *PostgresStore) GetStreak(ctx context.Context, userID uuid.UUID) (*streak.Streak, error) {
	query := `
		SELECT user_id, current_streak, longest_streak, last_activity_date, updated_at
		FROM streaks
		WHERE user_id = $1
	`
	st := &streak.Streak{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&st.UserID, &st.CurrentStreak, &st.LongestStreak, &st.LastActivityDate, &st.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) UpsertStreak(ctx context.Context, st *streak.Streak) error {
	query := `
		INSERT INTO streaks (user_id, current_streak, longest_streak, last_activity_date, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET current_streak = $2, longest_streak = $3, last_activity_date = $4, updated_at = NOW()
	`
	_, err := s.db.Exec(ctx, query, st.UserID, st.CurrentStreak, st.LongestStreak, st.LastActivityDate)
	if err != nil {
		return fmt.Errorf("failed to upsert streak: %w", err)
	}
	return nil
}

// ---------------------------------------------------------
// ACHIEVEMENTS
// ---------------------------------------------------------

func (s *PostgresStore) UserAchievements(ctx context.Context, userID uuid.UUID) ([]*achievement.Unlock, error) {
	query := `
		SELECT user_id, achievement_id, unlocked_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY unlocked_at ASC
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch achievements: %w", err)
	}
	defer rows.Close()

	var unlocks []*achievement.Unlock
	for rows.Next() {
		u := &achievement.Unlock{}
		err := rows.Scan(&u.UserID, &u.AchievementID, &u.UnlockedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		unlocks = append(unlocks, u)
	}
	return unlocks, nil
}

// InsertUnlock relies on the (user_id, achievement_id) primary key so the
// idempotency check and the write are a single statement, closing the
// read-then-write race.
func (s *PostgresStore) InsertUnlock(ctx context.Context, u *achievement.Unlock) (bool, error) {
	query := `
		INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`
	result, err := s.db.Exec(ctx, query, u.UserID, u.AchievementID, u.UnlockedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert unlock: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
