package models

import "time"

// ScheduledStatus is the lifecycle state of a deferred notification.
// Transitions are one-way: PENDING may move to exactly one of SENT, FAILED or
// CANCELLED, and the terminal states never change again.
type ScheduledStatus string

const (
	ScheduledStatusPending   ScheduledStatus = "PENDING"
	ScheduledStatusSent      ScheduledStatus = "SENT"
	ScheduledStatusFailed    ScheduledStatus = "FAILED"
	ScheduledStatusCancelled ScheduledStatus = "CANCELLED"
)

// Terminal reports whether no further transition is permitted from s.
func (s ScheduledStatus) Terminal() bool {
	return s == ScheduledStatusSent || s == ScheduledStatusFailed || s == ScheduledStatusCancelled
}

// ScheduledNotification is a deferred delivery request (PostgreSQL). Records
// are never deleted; terminal rows remain as an audit trail of what was
// delivered, what failed and what was cancelled.
type ScheduledNotification struct {
	ID            uint             `json:"id" gorm:"primaryKey"`
	UserID        string           `json:"userId" gorm:"size:64;index"`
	Type          NotificationType `json:"type" gorm:"size:30"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	ScheduledTime time.Time        `json:"scheduledTime" gorm:"index"`
	Status        ScheduledStatus  `json:"status" gorm:"size:12;index"`
	Error         string           `json:"error,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}
