package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"salesQuestAPI/internal/store"
	"salesQuestAPI/internal/types/activity"
	"salesQuestAPI/internal/types/user"
)

// ErrValidation marks input rejected before persistence.
var ErrValidation = errors.New("validation failed")

const dateLayout = "2006-01-02"

// ActivityNotifier receives newly persisted activities for fan-out.
// Failures inside the notifier never affect activity creation.
type ActivityNotifier interface {
	NotifyActivityCreated(a *activity.Activity)
}

type ActivityService struct {
	store    store.Store
	notifier ActivityNotifier
	now      func() time.Time
}

func NewActivityService(st store.Store) *ActivityService {
	return &ActivityService{
		store: st,
		now:   time.Now,
	}
}

// SetNotifier injects the fan-out dispatcher from main.go.
func (s *ActivityService) SetNotifier(n ActivityNotifier) {
	s.notifier = n
}

func (s *ActivityService) CreateActivity(ctx context.Context, req *activity.CreateActivityRequest) (*activity.Activity, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown activity type %q", ErrValidation, req.Type)
	}
	if req.Points < activity.MinPoints || req.Points > activity.MaxPoints {
		return nil, fmt.Errorf("%w: points %d outside [%d,%d]", ErrValidation, req.Points, activity.MinPoints, activity.MaxPoints)
	}
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if req.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}

	date := s.today()
	if req.Date != "" {
		parsed, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", ErrValidation, req.Date)
		}
		date = parsed
	}

	if err := s.ensureUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	a := &activity.Activity{
		ID:       uuid.New(),
		UserID:   req.UserID,
		Type:     req.Type,
		Title:    req.Title,
		Subtitle: req.Subtitle,
		Points:   req.Points,
		Date:     date,
	}

	if err := s.store.CreateActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to persist activity: %w", err)
	}

	// Stats refresh and notification fan-out are best-effort side
	// effects; the created activity is already durable.
	go s.refreshUserStats(a.UserID)
	if s.notifier != nil {
		s.notifier.NotifyActivityCreated(a)
	}

	return a, nil
}

func (s *ActivityService) GetUserActivities(ctx context.Context, userID uuid.UUID, dateFilter string) ([]*activity.Activity, error) {
	var date *time.Time
	if dateFilter != "" {
		parsed, err := time.Parse(dateLayout, dateFilter)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", ErrValidation, dateFilter)
		}
		date = &parsed
	}
	activities, err := s.store.UserActivities(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user activities: %w", err)
	}
	return activities, nil
}

func (s *ActivityService) GetActivitiesByDateRange(ctx context.Context, userID *uuid.UUID, start, end time.Time) ([]*activity.Activity, error) {
	activities, err := s.store.ActivitiesByDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities by range: %w", err)
	}
	return activities, nil
}

// DeleteActivity hard-removes the record. A miss surfaces as
// store.ErrNotFound, not a generic failure.
func (s *ActivityService) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteActivity(ctx, id)
}

func (s *ActivityService) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

// ensureUser creates the user document on first activity.
func (s *ActivityService) ensureUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.store.GetUser(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	u := &user.User{
		ID:       userID,
		Username: "user-" + userID.String()[:8],
		Settings: map[string]string{},
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// refreshUserStats recomputes the cumulative totals on the user document.
// Errors are logged, never propagated: activity creation must not fail on
// a stats refresh.
func (s *ActivityService) refreshUserStats(userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	points, count, err := s.store.UserActivityTotals(ctx, userID)
	if err != nil {
		log.Printf("Stats refresh failed for user %s: %v", userID, err)
		return
	}
	if err := s.store.UpdateUserTotals(ctx, userID, points, count); err != nil {
		log.Printf("Stats write-back failed for user %s: %v", userID, err)
	}
}
