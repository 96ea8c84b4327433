package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"salesQuestAPI/internal/store"
	"salesQuestAPI/internal/types/quota"
)

// QuotaService tracks a rolling daily send budget per message category.
// It is a soft, advisory gate: CanSendMessage is checked once before a
// fan-out burst and concurrent bursts may both pass before either
// records usage. RecordMessage increments atomically and returns the
// authoritative remaining count, so a dispatcher that stops at zero
// bounds the overshoot to the number of in-flight bursts.
type QuotaService struct {
	store            store.Store
	ceilings         map[quota.Category]int
	defaultCeiling   int
	warningThreshold int
	retention        time.Duration
	now              func() time.Time
}

func NewQuotaService(st store.Store, ceilings map[quota.Category]int, defaultCeiling, warningThreshold int, retention time.Duration) *QuotaService {
	return &QuotaService{
		store:            st,
		ceilings:         ceilings,
		defaultCeiling:   defaultCeiling,
		warningThreshold: warningThreshold,
		retention:        retention,
		now:              time.Now,
	}
}

func (s *QuotaService) ceiling(category quota.Category) int {
	if c, ok := s.ceilings[category]; ok {
		return c
	}
	return s.defaultCeiling
}

// CanSendMessage authorizes a fan-out burst against today's counter.
// Urgent messages are still counted but skip the low-budget warning.
func (s *QuotaService) CanSendMessage(ctx context.Context, category quota.Category, urgent bool) (*quota.Decision, error) {
	used, err := s.store.QuotaUsed(ctx, category, s.today())
	if err != nil {
		return nil, fmt.Errorf("failed to read quota counter: %w", err)
	}

	ceiling := s.ceiling(category)
	remaining := ceiling - used
	if remaining <= 0 {
		return &quota.Decision{
			Allowed:   false,
			Remaining: 0,
			Reason:    fmt.Sprintf("daily ceiling of %d reached for category %q", ceiling, category),
		}, nil
	}

	decision := &quota.Decision{Allowed: true, Remaining: remaining}
	if !urgent && remaining <= s.warningThreshold {
		decision.Warning = fmt.Sprintf("only %d sends remaining today for category %q", remaining, category)
	}
	return decision, nil
}

// RecordMessage counts a send attempt against today's counter and
// returns the remaining budget after the increment.
func (s *QuotaService) RecordMessage(ctx context.Context, category quota.Category, targetID string, count int) (int, error) {
	if count <= 0 {
		return 0, fmt.Errorf("%w: count must be positive", ErrValidation)
	}
	used, err := s.store.QuotaIncrement(ctx, category, targetID, s.today(), count)
	if err != nil {
		return 0, fmt.Errorf("failed to record message: %w", err)
	}
	remaining := s.ceiling(category) - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// CleanupOldRecords drops counters older than the retention window.
// Safe to run concurrently with foreground traffic.
func (s *QuotaService) CleanupOldRecords(ctx context.Context) {
	cutoff := s.today().Add(-s.retention)
	removed, err := s.store.QuotaDeleteBefore(ctx, cutoff)
	if err != nil {
		log.Printf("Quota sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Quota sweep removed %d stale records", removed)
	}
}

func (s *QuotaService) today() time.Time {
	n := s.now().UTC()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}
