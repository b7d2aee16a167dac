package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/models"
)

// ErrValidation rejects malformed input before any persistence attempt.
var ErrValidation = errors.New("invalid notification input")

// Store is the durable side of dispatching. A create failure fails the whole
// Notify call; nothing else does.
type Store interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Pusher is a best-effort live delivery channel. Errors are logged and
// swallowed by the dispatcher; an offline target must not be reported as an
// error by implementations.
type Pusher interface {
	Push(ctx context.Context, notification *models.Notification) error
}

// Dispatcher is the single entry point for producing notifications. It
// persists first and only then attempts live delivery, so the durable record
// never depends on transport availability.
type Dispatcher struct {
	store   Store
	pushers []Pusher
	log     zerolog.Logger
	now     func() time.Time
}

func NewDispatcher(store Store, log zerolog.Logger, pushers ...Pusher) *Dispatcher {
	return &Dispatcher{
		store:   store,
		pushers: pushers,
		log:     log,
		now:     time.Now,
	}
}

// Notify persists a notification for the user and pushes it to any live
// sessions. The returned error reflects persistence only: push failures are
// logged and never surface, and never roll the write back.
func (d *Dispatcher) Notify(ctx context.Context, userID string, typ models.NotificationType, title, message string, data map[string]interface{}) (*models.Notification, error) {
	if err := validateInput(userID, typ, title, message); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: d.now().UTC(),
	}
	if err := d.store.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	for _, p := range d.pushers {
		if err := p.Push(ctx, notification); err != nil {
			d.log.Warn().Err(err).Str("user", userID).Str("notification", notification.ID.Hex()).
				Msg("live delivery failed")
		}
	}
	return notification, nil
}

// NotifyBulk fans out to each target independently. A failed write for one
// user is logged and skipped; the result holds the successes only.
func (d *Dispatcher) NotifyBulk(ctx context.Context, userIDs []string, typ models.NotificationType, title, message string, data map[string]interface{}) []*models.Notification {
	notifications := make([]*models.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notification, err := d.Notify(ctx, userID, typ, title, message, data)
		if err != nil {
			d.log.Error().Err(err).Str("user", userID).Msg("bulk notify: target skipped")
			continue
		}
		notifications = append(notifications, notification)
	}
	return notifications
}

func validateInput(userID string, typ models.NotificationType, title, message string) error {
	switch {
	case userID == "":
		return fmt.Errorf("%w: missing user id", ErrValidation)
	case !typ.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrValidation, typ)
	case title == "":
		return fmt.Errorf("%w: missing title", ErrValidation)
	case message == "":
		return fmt.Errorf("%w: missing message", ErrValidation)
	}
	return nil
}
