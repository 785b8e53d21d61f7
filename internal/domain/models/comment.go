// internal/domain/models/comment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is an immutable remark on an idea. It can only be deleted.
type Comment struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	IdeaID     primitive.ObjectID `bson:"idea_id" json:"idea_id"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorName string             `bson:"author_name" json:"author_name"`
	Text       string             `bson:"text" json:"text"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
