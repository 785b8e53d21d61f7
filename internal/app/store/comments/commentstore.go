// internal/app/store/comments/commentstore.go
package commentstore

import (
	"context"
	"time"

	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("comments")}
}

// Create inserts a comment with a server timestamp.
func (s *Store) Create(ctx context.Context, c models.Comment) (models.Comment, error) {
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// GetForIdea loads a comment only if it belongs to ideaID.
func (s *Store) GetForIdea(ctx context.Context, ideaID, commentID primitive.ObjectID) (models.Comment, error) {
	var c models.Comment
	if err := s.c.FindOne(ctx, bson.M{"_id": commentID, "idea_id": ideaID}).Decode(&c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// ListByIdea returns an idea's comments in chronological order.
func (s *Store) ListByIdea(ctx context.Context, ideaID primitive.ObjectID) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"idea_id": ideaID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Comment, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a comment. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, commentID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": commentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByIdea removes every comment on an idea.
// Returns the number of documents deleted.
func (s *Store) DeleteByIdea(ctx context.Context, ideaID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"idea_id": ideaID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
