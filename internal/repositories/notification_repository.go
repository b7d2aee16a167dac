package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexTseluiko/OnScreen-sub002/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotificationNotFound is returned when a notification does not exist or
// does not belong to the requesting user. The two cases are deliberately not
// distinguished so callers cannot probe for other users' records.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository defines the interface for notification storage
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, page, limit int) ([]models.Notification, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, userID string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id, userID string) error
	DeleteAll(ctx context.Context, userID string) error
}

type mongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{
		collection: db.Collection("notifications"),
	}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.IsRead = false
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

func (r *mongoNotificationRepository) ListByUser(ctx context.Context, userID string, page, limit int) ([]models.Notification, int64, error) {
	filter := bson.M{"userId": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	notifications := make([]models.Notification, 0, limit)
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *mongoNotificationRepository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID, "isRead": false})
}

func (r *mongoNotificationRepository) MarkRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotificationNotFound
	}

	// The owner id is part of the filter, so a foreign notification behaves
	// exactly like a missing one.
	filter := bson.M{"_id": objID, "userId": userID}
	update := bson.M{"$set": bson.M{"isRead": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var notification models.Notification
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&notification)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return &notification, nil
}

func (r *mongoNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"userId": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	return err
}

func (r *mongoNotificationRepository) Delete(ctx context.Context, id, userID string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotificationNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID, "userId": userID})
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *mongoNotificationRepository) DeleteAll(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}
