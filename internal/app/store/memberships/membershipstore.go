// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/classforge/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_memberships")}
}

var errBadRole = errors.New(`role must be "admin" or "member"`)

var ErrDuplicateMembership = errors.New("user is already a member of this group")

// Add creates a membership. The unique (group_id, user_id) index turns a
// repeat into ErrDuplicateMembership.
func (s *Store) Add(ctx context.Context, groupID, userID primitive.ObjectID, role string) error {
	if role != models.GroupRoleAdmin && role != models.GroupRoleMember {
		return errBadRole
	}
	_, err := s.c.InsertOne(ctx, models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// Get loads the membership for (groupID, userID).
func (s *Store) Get(ctx context.Context, groupID, userID primitive.ObjectID) (models.GroupMembership, error) {
	var m models.GroupMembership
	if err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&m); err != nil {
		return models.GroupMembership{}, err
	}
	return m, nil
}

// Exists checks if a membership exists for the given group and user.
func (s *Store) Exists(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the membership document for (groupID, userID).
// Returns the number of documents deleted (0 or 1).
func (s *Store) Remove(ctx context.Context, groupID, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"group_id": groupID, "user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByGroup removes all memberships for a group.
// Returns the number of documents deleted.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByGroup returns the count of memberships for a group, optionally filtered by role.
// If role is empty, counts all memberships.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID, role string) (int64, error) {
	filter := bson.M{"group_id": groupID}
	if role != "" {
		filter["role"] = role
	}
	return s.c.CountDocuments(ctx, filter)
}

// ListByGroup returns all memberships for a group in join order, optionally
// filtered by role. If role is empty, returns all memberships.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, role string) ([]models.GroupMembership, error) {
	filter := bson.M{"group_id": groupID}
	if role != "" {
		filter["role"] = role
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	memberships := make([]models.GroupMembership, 0)
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// GroupIDsForUser returns the ids of every group userID belongs to.
func (s *Store) GroupIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetProjection(bson.M{"group_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			GroupID primitive.ObjectID `bson:"group_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.GroupID)
	}
	return ids, cur.Err()
}
