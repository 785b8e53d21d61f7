// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"time"

	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Every read and mutation is scoped by recipient, so a notification owned by
// someone else behaves exactly like a missing one.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// InsertMany stores one row per notification, assigning ids and timestamps.
// The returned slice carries the stored values.
func (s *Store) InsertMany(ctx context.Context, ns []models.Notification) ([]models.Notification, error) {
	if len(ns) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(ns))
	out := make([]models.Notification, len(ns))
	for i, n := range ns {
		n.ID = primitive.NewObjectID()
		n.IsRead = false
		n.CreatedAt = now
		out[i] = n
		docs[i] = n
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByRecipient returns a page of a user's notifications, newest first,
// and the total matching count.
func (s *Store) ListByRecipient(ctx context.Context, recipient primitive.ObjectID, unreadOnly bool, skip, limit int64) ([]models.Notification, int64, error) {
	q := bson.M{"recipient_id": recipient}
	if unreadOnly {
		q["is_read"] = false
	}

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	out := make([]models.Notification, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountUnread counts a user's unread notifications.
func (s *Store) CountUnread(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"recipient_id": recipient, "is_read": false})
}

// MarkRead marks one notification read. It returns mongo.ErrNoDocuments when
// the id does not belong to recipient, and otherwise the new unread count.
// Marking an already read notification is not an error.
func (s *Store) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "recipient_id": recipient},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, err
	}
	if res.MatchedCount == 0 {
		return 0, mongo.ErrNoDocuments
	}
	return s.CountUnread(ctx, recipient)
}

// MarkAllRead marks every notification of recipient read and returns the new
// unread count.
func (s *Store) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	if _, err := s.c.UpdateMany(ctx,
		bson.M{"recipient_id": recipient, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	); err != nil {
		return 0, err
	}
	return s.CountUnread(ctx, recipient)
}

// Delete removes one notification of recipient. It returns
// mongo.ErrNoDocuments when there is no such notification, and otherwise the
// new unread count.
func (s *Store) Delete(ctx context.Context, id, recipient primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "recipient_id": recipient})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount == 0 {
		return 0, mongo.ErrNoDocuments
	}
	return s.CountUnread(ctx, recipient)
}

// DeleteAll removes every notification of recipient and returns how many
// were deleted.
func (s *Store) DeleteAll(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"recipient_id": recipient})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteReadBefore removes read notifications created before cutoff.
// Used by the retention worker.
func (s *Store) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"is_read":    true,
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
