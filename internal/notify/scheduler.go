package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/models"
	"github.com/AlexTseluiko/OnScreen-sub002/internal/repositories"
)

// ScheduledStore is the audit store for deferred deliveries.
type ScheduledStore interface {
	Create(ctx context.Context, scheduled *models.ScheduledNotification) error
	GetByID(ctx context.Context, id uint) (*models.ScheduledNotification, error)
	ListPendingByUser(ctx context.Context, userID string) ([]models.ScheduledNotification, error)
	ListPending(ctx context.Context) ([]models.ScheduledNotification, error)
	TransitionFromPending(ctx context.Context, id uint, to models.ScheduledStatus, errMsg string) (bool, error)
	MarkFailed(ctx context.Context, id uint, errMsg string) error
}

// Notifier is the slice of the dispatcher the scheduler invokes at fire time.
type Notifier interface {
	Notify(ctx context.Context, userID string, typ models.NotificationType, title, message string, data map[string]interface{}) (*models.Notification, error)
}

// Scheduler defers dispatcher calls to a future wall-clock time. Timers live
// in process memory only; Restore re-arms them from the PENDING records after
// a restart. Exactly one of cancel-or-fire wins for any record: both sides
// transition status through a conditional update keyed on PENDING.
type Scheduler struct {
	store      ScheduledStore
	dispatcher Notifier
	log        zerolog.Logger
	now        func() time.Time

	mu     sync.Mutex
	timers map[uint]*time.Timer
	closed bool
}

func NewScheduler(store ScheduledStore, dispatcher Notifier, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		log:        log,
		now:        time.Now,
		timers:     make(map[uint]*time.Timer),
	}
}

// Schedule persists a PENDING record and arms a timer for it. A scheduled
// time in the past fires immediately.
func (s *Scheduler) Schedule(ctx context.Context, userID string, typ models.NotificationType, title, message string, at time.Time) (*models.ScheduledNotification, error) {
	if err := validateInput(userID, typ, title, message); err != nil {
		return nil, err
	}
	if at.IsZero() {
		return nil, fmt.Errorf("%w: missing scheduled time", ErrValidation)
	}

	scheduled := &models.ScheduledNotification{
		UserID:        userID,
		Type:          typ,
		Title:         title,
		Message:       message,
		ScheduledTime: at.UTC(),
	}
	if err := s.store.Create(ctx, scheduled); err != nil {
		return nil, fmt.Errorf("create scheduled notification: %w", err)
	}

	s.arm(scheduled.ID, scheduled.ScheduledTime)
	return scheduled, nil
}

// ListPending returns the user's PENDING records, earliest first.
func (s *Scheduler) ListPending(ctx context.Context, userID string) ([]models.ScheduledNotification, error) {
	return s.store.ListPendingByUser(ctx, userID)
}

// Cancel moves a PENDING record to CANCELLED and disarms its timer. A record
// that is missing or already terminal yields ErrScheduledNotificationNotFound:
// once the timer has fired, cancellation loses.
func (s *Scheduler) Cancel(ctx context.Context, id uint) error {
	ok, err := s.store.TransitionFromPending(ctx, id, models.ScheduledStatusCancelled, "")
	if err != nil {
		return fmt.Errorf("cancel scheduled notification: %w", err)
	}
	if !ok {
		return repositories.ErrScheduledNotificationNotFound
	}

	s.mu.Lock()
	if t, found := s.timers[id]; found {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.log.Info().Uint("scheduled", id).Msg("scheduled notification cancelled")
	return nil
}

// Restore re-arms timers for every PENDING record. Past-due records fire
// immediately; a process restart must not leave records stuck in PENDING.
func (s *Scheduler) Restore(ctx context.Context) error {
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("restore scheduled notifications: %w", err)
	}
	for _, rec := range pending {
		s.arm(rec.ID, rec.ScheduledTime)
	}
	if len(pending) > 0 {
		s.log.Info().Int("count", len(pending)).Msg("re-armed pending scheduled notifications")
	}
	return nil
}

// Stop disarms all timers. Records stay PENDING and are picked up by the next
// Restore.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) arm(id uint, at time.Time) {
	delay := at.Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, exists := s.timers[id]; exists {
		return
	}
	s.timers[id] = time.AfterFunc(delay, func() { s.fire(id) })
}

// fire claims the record (PENDING -> SENT) and then dispatches. Claiming
// first keeps the transition atomic against Cancel; if the dispatch then
// fails, the fire path downgrades its own claim to FAILED with the error
// captured. Failures are terminal: there is no retry.
func (s *Scheduler) fire(id uint) {
	ctx := context.Background()

	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	claimed, err := s.store.TransitionFromPending(ctx, id, models.ScheduledStatusSent, "")
	if err != nil {
		s.log.Error().Err(err).Uint("scheduled", id).Msg("scheduled fire: claim failed")
		return
	}
	if !claimed {
		// Cancel won the race.
		s.log.Debug().Uint("scheduled", id).Msg("scheduled fire: record no longer pending")
		return
	}

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Uint("scheduled", id).Msg("scheduled fire: load failed")
		return
	}

	if _, err := s.dispatcher.Notify(ctx, rec.UserID, rec.Type, rec.Title, rec.Message, nil); err != nil {
		if markErr := s.store.MarkFailed(ctx, id, err.Error()); markErr != nil {
			s.log.Error().Err(markErr).Uint("scheduled", id).Msg("scheduled fire: failed to record failure")
		}
		s.log.Error().Err(err).Uint("scheduled", id).Str("user", rec.UserID).
			Msg("scheduled notification failed")
		return
	}

	s.log.Info().Uint("scheduled", id).Str("user", rec.UserID).Msg("scheduled notification sent")
}
