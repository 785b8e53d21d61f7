// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a student chat group joined by code or invite.
//
// NOTE:
//   - Members are not embedded on Group.
//     All membership is stored in the group_memberships collection.
//   - GroupCode is unique across all groups.
type Group struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description string             `bson:"description" json:"description"`
	GroupCode   string             `bson:"group_code" json:"group_code"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// GroupMessage is one chat message posted to a group.
type GroupMessage struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	GroupID    primitive.ObjectID `bson:"group_id" json:"group_id"`
	SenderID   primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	SenderName string             `bson:"sender_name" json:"sender_name"`
	Text       string             `bson:"text" json:"text"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
