package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"salesQuestAPI/internal/store"
	"salesQuestAPI/internal/types/activity"
	"salesQuestAPI/internal/types/leaderboard"
	"salesQuestAPI/internal/types/notification"
	"salesQuestAPI/internal/types/quota"
)

// PushProvider sends one payload to one chat group. Implementations are
// subject to the platform's own rate limits; the dispatcher applies a
// bounded timeout around every call.
type PushProvider interface {
	Send(ctx context.Context, groupKey string, payload *notification.Payload) error
}

var (
	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Group notifications successfully pushed",
		},
		[]string{"category"},
	)
	notificationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Group notification pushes that errored",
		},
		[]string{"category"},
	)
	notificationsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_skipped_total",
			Help: "Group notifications suppressed before sending",
		},
		[]string{"reason"},
	)
)

// InitMetrics registers dispatcher metrics. Call once from main.
func InitMetrics() {
	prometheus.MustRegister(notificationsSent)
	prometheus.MustRegister(notificationsFailed)
	prometheus.MustRegister(notificationsSkipped)
}

// fanOutJob is one queued notification event; exactly one field is set.
type fanOutJob struct {
	activity *activity.Activity
	unlock   *unlockEvent
}

type unlockEvent struct {
	userID        uuid.UUID
	achievementID string
}

// NotificationDispatcher fans newly recorded activities and achievement
// unlocks out to every registered, notification-enabled chat group,
// consuming quota per send.
type NotificationDispatcher struct {
	store        store.Store
	quota        *QuotaService
	aggregation  *AggregationService
	pushProvider PushProvider
	sendTimeout  time.Duration
	workers      int
	jobQueue     chan fanOutJob
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

func NewNotificationDispatcher(st store.Store, quotaSvc *QuotaService, aggregationSvc *AggregationService, sendTimeout time.Duration) *NotificationDispatcher {
	d := &NotificationDispatcher{
		store:       st,
		quota:       quotaSvc,
		aggregation: aggregationSvc,
		sendTimeout: sendTimeout,
		workers:     3,
		jobQueue:    make(chan fanOutJob, 100),
		stopChan:    make(chan struct{}),
	}
	d.startWorkers()
	return d
}

// SetPushProvider injects the real FCM provider from main.go.
func (d *NotificationDispatcher) SetPushProvider(provider PushProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			if job.activity != nil {
				d.fanOut(job.activity)
			} else if job.unlock != nil {
				d.fanOutUnlock(job.unlock)
			}
		case <-d.stopChan:
			return
		}
	}
}

// NotifyActivityCreated queues the activity for fan-out. The enclosing
// request never blocks on a full queue; the event is dropped and logged.
func (d *NotificationDispatcher) NotifyActivityCreated(a *activity.Activity) {
	select {
	case d.jobQueue <- fanOutJob{activity: a}:
	default:
		log.Printf("Notification queue full, dropping fan-out for activity %s", a.ID)
		notificationsSkipped.WithLabelValues("queue_full").Inc()
	}
}

// NotifyAchievementUnlocked queues a first-time unlock for fan-out
// under the achievement quota category.
func (d *NotificationDispatcher) NotifyAchievementUnlocked(userID uuid.UUID, achievementID string) {
	select {
	case d.jobQueue <- fanOutJob{unlock: &unlockEvent{userID: userID, achievementID: achievementID}}:
	default:
		log.Printf("Notification queue full, dropping fan-out for achievement %s", achievementID)
		notificationsSkipped.WithLabelValues("queue_full").Inc()
	}
}

func (d *NotificationDispatcher) fanOut(a *activity.Activity) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d.deliver(ctx, quota.CategoryActivity, "activity "+a.ID.String(), func() *notification.Payload {
		return d.buildActivityPayload(ctx, a)
	})
}

func (d *NotificationDispatcher) fanOutUnlock(e *unlockEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d.deliver(ctx, quota.CategoryAchievement, "achievement "+e.achievementID, func() *notification.Payload {
		return d.buildUnlockPayload(ctx, e)
	})
}

// deliver performs one burst: a single quota authorization up front,
// then one send per enabled group while the locally tracked remaining
// budget lasts. Per-group failures are logged and never abort the loop.
func (d *NotificationDispatcher) deliver(ctx context.Context, category quota.Category, event string, build func() *notification.Payload) {
	if d.pushProvider == nil {
		notificationsSkipped.WithLabelValues("no_provider").Inc()
		return
	}

	groups, err := d.store.ListGroups(ctx)
	if err != nil {
		log.Printf("Fan-out aborted, cannot list groups: %v", err)
		return
	}

	enabled := groups[:0]
	for _, g := range groups {
		if g.NotificationsEnabled {
			enabled = append(enabled, g)
		}
	}
	if len(enabled) == 0 {
		return
	}

	decision, err := d.quota.CanSendMessage(ctx, category, false)
	if err != nil {
		log.Printf("Fan-out aborted, quota check failed: %v", err)
		return
	}
	if !decision.Allowed {
		log.Printf("Fan-out suppressed for %s: %s", event, decision.Reason)
		notificationsSkipped.WithLabelValues("quota_exhausted").Add(float64(len(enabled)))
		return
	}
	if decision.Warning != "" {
		log.Printf("Quota warning: %s", decision.Warning)
	}

	payload := build()

	remaining := decision.Remaining
	for _, g := range enabled {
		if remaining <= 0 {
			// Budget spent mid-burst; the rest of the groups go
			// un-notified for this event, not queued or retried.
			log.Printf("Quota exhausted mid fan-out for %s, skipping remaining groups", event)
			break
		}

		sendCtx, sendCancel := context.WithTimeout(ctx, d.sendTimeout)
		err := d.pushProvider.Send(sendCtx, g.Key, payload)
		sendCancel()
		if err != nil {
			log.Printf("Push to group %s failed: %v", g.Key, err)
			notificationsFailed.WithLabelValues(string(category)).Inc()
			continue
		}
		notificationsSent.WithLabelValues(string(category)).Inc()

		left, err := d.quota.RecordMessage(ctx, category, g.Key, 1)
		if err != nil {
			log.Printf("Failed to record quota for group %s: %v", g.Key, err)
			remaining--
			continue
		}
		remaining = left
	}
}

// buildActivityPayload assembles the rich notification. Every lookup is
// best-effort: a failed enrichment degrades the message, never the send.
func (d *NotificationDispatcher) buildActivityPayload(ctx context.Context, a *activity.Activity) *notification.Payload {
	payload := &notification.Payload{
		Title:    fmt.Sprintf("New %s logged", a.Type),
		Activity: a,
	}
	d.enrichSubmitter(ctx, payload, a.UserID)

	payload.Body = fmt.Sprintf("%s earned %d points: %s", payload.SubmitterName, a.Points, a.Title)

	if stats, err := d.aggregation.GetTeamStats(ctx); err != nil {
		log.Printf("Payload enrichment: team stats failed: %v", err)
	} else {
		payload.Team = stats
	}

	if lb, err := d.aggregation.GetLeaderboard(ctx, leaderboard.PeriodDaily, a.Date); err != nil {
		log.Printf("Payload enrichment: daily leaderboard failed: %v", err)
	} else {
		for _, entry := range lb.Entries {
			if entry.UserID == a.UserID {
				payload.SubmitterDailyRank = entry.Rank
				break
			}
		}
	}

	return payload
}

func (d *NotificationDispatcher) buildUnlockPayload(ctx context.Context, e *unlockEvent) *notification.Payload {
	payload := &notification.Payload{
		Title:         "Achievement unlocked",
		AchievementID: e.achievementID,
	}
	d.enrichSubmitter(ctx, payload, e.userID)
	payload.Body = fmt.Sprintf("%s unlocked %q", payload.SubmitterName, e.achievementID)
	return payload
}

func (d *NotificationDispatcher) enrichSubmitter(ctx context.Context, payload *notification.Payload, userID uuid.UUID) {
	submitter, err := d.store.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Payload enrichment: user lookup failed: %v", err)
		}
		payload.SubmitterName = "Unknown"
		return
	}
	payload.SubmitterName = submitter.Username
	payload.SubmitterPoints = submitter.TotalPoints
	payload.SubmitterActivities = submitter.TotalActivities
}

// Stop drains the workers gracefully.
func (d *NotificationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}

// MockPushProvider logs instead of pushing; used in tests and when FCM
// credentials are absent.
type MockPushProvider struct{}

func (m *MockPushProvider) Send(ctx context.Context, groupKey string, payload *notification.Payload) error {
	log.Printf("MOCK PUSH to %s: %s - %s", groupKey, payload.Title, payload.Body)
	return nil
}
