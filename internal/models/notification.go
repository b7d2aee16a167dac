package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType classifies what a notification is about.
type NotificationType string

const (
	NotificationTypeSystem        NotificationType = "SYSTEM"
	NotificationTypeMessage       NotificationType = "MESSAGE"
	NotificationTypeAppointment   NotificationType = "APPOINTMENT"
	NotificationTypeReminder      NotificationType = "REMINDER"
	NotificationTypeReviewAdded   NotificationType = "REVIEW_ADDED"
	NotificationTypeReviewLiked   NotificationType = "REVIEW_LIKED"
	NotificationTypeMedicalRecord NotificationType = "MEDICAL_RECORD"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeSystem, NotificationTypeMessage, NotificationTypeAppointment,
		NotificationTypeReminder, NotificationTypeReviewAdded, NotificationTypeReviewLiked,
		NotificationTypeMedicalRecord:
		return true
	}
	return false
}

// Notification is a durable per-user notification (MongoDB).
// UserID, Type and CreatedAt are immutable after creation; IsRead is the only
// field the owner may change.
type Notification struct {
	ID        primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	UserID    string                 `json:"userId" bson:"userId"`
	Type      NotificationType       `json:"type" bson:"type"`
	Title     string                 `json:"title" bson:"title"`
	Message   string                 `json:"message" bson:"message"`
	Data      map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`
	IsRead    bool                   `json:"isRead" bson:"isRead"`
	CreatedAt time.Time              `json:"createdAt" bson:"createdAt"`
}

// BroadcastRequest targets either every connected user (empty UserIDs) or an
// explicit list. Privileged callers only.
type BroadcastRequest struct {
	UserIDs []string               `json:"userIds,omitempty"`
	Roles   []Role                 `json:"roles,omitempty"`
	Type    NotificationType       `json:"type,omitempty"`
	Title   string                 `json:"title" validate:"required,max=200"`
	Message string                 `json:"message" validate:"required,max=2000"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// ScheduleNotificationRequest asks for a notification to be delivered at a
// future point in time. An empty UserID targets the caller.
type ScheduleNotificationRequest struct {
	UserID        string           `json:"userId,omitempty"`
	Type          NotificationType `json:"type" validate:"required"`
	Title         string           `json:"title" validate:"required,max=200"`
	Message       string           `json:"message" validate:"required,max=2000"`
	ScheduledTime time.Time        `json:"scheduledTime" validate:"required"`
}
