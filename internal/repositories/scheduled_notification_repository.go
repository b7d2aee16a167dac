package repositories

import (
	"context"
	"errors"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/models"
	"gorm.io/gorm"
)

// ErrScheduledNotificationNotFound is returned when a scheduled notification
// does not exist, or when a requested PENDING transition finds the record
// already in a terminal state.
var ErrScheduledNotificationNotFound = errors.New("scheduled notification not found")

// ScheduledNotificationRepository defines the interface for the deferred
// delivery audit store
type ScheduledNotificationRepository interface {
	Create(ctx context.Context, scheduled *models.ScheduledNotification) error
	GetByID(ctx context.Context, id uint) (*models.ScheduledNotification, error)
	ListPendingByUser(ctx context.Context, userID string) ([]models.ScheduledNotification, error)
	ListPending(ctx context.Context) ([]models.ScheduledNotification, error)
	TransitionFromPending(ctx context.Context, id uint, to models.ScheduledStatus, errMsg string) (bool, error)
	MarkFailed(ctx context.Context, id uint, errMsg string) error
}

type postgresScheduledNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresScheduledNotificationRepository(db *gorm.DB) ScheduledNotificationRepository {
	return &postgresScheduledNotificationRepository{db: db}
}

func (r *postgresScheduledNotificationRepository) Create(ctx context.Context, scheduled *models.ScheduledNotification) error {
	scheduled.Status = models.ScheduledStatusPending
	return r.db.WithContext(ctx).Create(scheduled).Error
}

func (r *postgresScheduledNotificationRepository) GetByID(ctx context.Context, id uint) (*models.ScheduledNotification, error) {
	var scheduled models.ScheduledNotification
	err := r.db.WithContext(ctx).First(&scheduled, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduledNotificationNotFound
		}
		return nil, err
	}
	return &scheduled, nil
}

func (r *postgresScheduledNotificationRepository) ListPendingByUser(ctx context.Context, userID string) ([]models.ScheduledNotification, error) {
	var pending []models.ScheduledNotification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.ScheduledStatusPending).
		Order("scheduled_time ASC").
		Find(&pending).Error
	return pending, err
}

func (r *postgresScheduledNotificationRepository) ListPending(ctx context.Context) ([]models.ScheduledNotification, error) {
	var pending []models.ScheduledNotification
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ScheduledStatusPending).
		Order("scheduled_time ASC").
		Find(&pending).Error
	return pending, err
}

// TransitionFromPending moves the record to a terminal status if and only if
// it is still PENDING. The conditional UPDATE makes the cancel/fire race a
// single atomic compare-and-swap: exactly one contender sees a row affected.
func (r *postgresScheduledNotificationRepository) TransitionFromPending(ctx context.Context, id uint, to models.ScheduledStatus, errMsg string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ScheduledNotification{}).
		Where("id = ? AND status = ?", id, models.ScheduledStatusPending).
		Updates(map[string]interface{}{"status": to, "error": errMsg})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkFailed downgrades a record the fire path has already claimed as SENT.
// Unconditional: at this point the timer owns the record.
func (r *postgresScheduledNotificationRepository) MarkFailed(ctx context.Context, id uint, errMsg string) error {
	return r.db.WithContext(ctx).
		Model(&models.ScheduledNotification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.ScheduledStatusFailed, "error": errMsg}).Error
}
