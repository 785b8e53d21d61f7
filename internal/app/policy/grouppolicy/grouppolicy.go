// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import (
	"context"

	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsMember returns true if the user belongs to the group in any role,
// according to the authoritative group_memberships collection.
func IsMember(ctx context.Context, db *mongo.Database, userID, groupID primitive.ObjectID) (bool, error) {
	return countMembership(ctx, db, bson.M{"group_id": groupID, "user_id": userID})
}

// IsGroupAdmin returns true if the user is an admin of the group.
func IsGroupAdmin(ctx context.Context, db *mongo.Database, userID, groupID primitive.ObjectID) (bool, error) {
	return countMembership(ctx, db, bson.M{
		"group_id": groupID,
		"user_id":  userID,
		"role":     models.GroupRoleAdmin,
	})
}

// MemberChecker adapts IsMember to a function bound to db, the shape the
// realtime server uses to authorize join_group.
func MemberChecker(db *mongo.Database) func(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error) {
	return func(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error) {
		return IsMember(ctx, db, userID, groupID)
	}
}

func countMembership(ctx context.Context, db *mongo.Database, filter bson.M) (bool, error) {
	n, err := db.Collection("group_memberships").CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
