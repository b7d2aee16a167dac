package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/models"
)

// Pusher delivers notifications through Firebase Cloud Messaging. Each client
// device subscribes to its owner's topic after login, so no token bookkeeping
// happens on this side. A nil messaging client turns every push into a no-op.
type Pusher struct {
	client *messaging.Client
}

func NewPusher(client *messaging.Client) *Pusher {
	return &Pusher{client: client}
}

// UserTopic is the FCM topic a user's devices subscribe to.
func UserTopic(userID string) string {
	return "user-" + userID
}

// Push sends the notification to the owner's topic. Satisfies the
// dispatcher's pusher contract.
func (p *Pusher) Push(ctx context.Context, notification *models.Notification) error {
	if p.client == nil {
		return nil
	}

	data := map[string]string{
		"id":   notification.ID.Hex(),
		"type": string(notification.Type),
	}

	msg := &messaging.Message{
		Topic: UserTopic(notification.UserID),
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Message,
		},
		Data: data,
	}

	if _, err := p.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}
